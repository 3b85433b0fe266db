package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/elastix"
	"github.com/sirupsen/logrus"
)

func (s *warpService) Warp(ctx context.Context, req entity.WarpRequest) (*entity.ResultEnvelope, error) {
	run := s.start(entity.RunWarp, append([]string{req.Input}, req.TransformMaps...)...)
	run.Output = req.Output

	envelope, err := s.warp(ctx, req, run)
	s.finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

func (s *warpService) warp(ctx context.Context, req entity.WarpRequest, run *entity.Run) (*entity.ResultEnvelope, error) {
	if err := checkImage(s.storage, "input", req.Input, elastix.CheckReadable); err != nil {
		return nil, err
	}
	if len(req.TransformMaps) == 0 {
		return nil, fmt.Errorf("%w: no transform parameter files given", entity.ErrInvalidInput)
	}

	// every file is checked before any is read; the first gap aborts
	for _, path := range req.TransformMaps {
		if !s.storage.Exists(path) {
			return nil, fmt.Errorf("%w: %s does not exist", entity.ErrTransformNotFound, path)
		}
	}

	if req.Output == "" {
		return nil, fmt.Errorf("%w: output image path is empty", entity.ErrInvalidInput)
	}
	format, err := elastix.OutputFormat(req.Output)
	if err != nil {
		return nil, err
	}

	transforms := make([]*elastix.ParameterMap, 0, len(req.TransformMaps))
	for _, path := range req.TransformMaps {
		tp, err := elastix.ReadParameterFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameterMap, err)
		}
		if tp.First("Transform") == "" {
			return nil, fmt.Errorf("%w: %s has no Transform", entity.ErrInvalidParameterMap, path)
		}
		transforms = append(transforms, tp)
	}
	run.Stages = len(transforms)

	workDir, cleanup, err := newScratch(s.storage, run.ID, s.opts.KeepScratch)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	logrus.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"input":      req.Input,
		"transforms": len(transforms),
	}).Info("starting warp")

	result, err := s.engine.Warp(ctx, elastix.WarpJob{
		Input:      req.Input,
		Transforms: transforms,
		WorkDir:    workDir,
		Format:     format,
	})
	if err != nil {
		return nil, err
	}

	if err := s.storage.Copy(result, req.Output); err != nil {
		return nil, fmt.Errorf("%w: Failed to write output image: %v", entity.ErrOutputWrite, err)
	}

	envelope := entity.Success("Image warping completed successfully.", req.Output)
	envelope.RunID = run.ID
	return envelope, nil
}
