package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/elastix"
	"github.com/sirupsen/logrus"
)

// TransformFileName is the name of the transform of registration stage i,
// stored next to the output image.
func TransformFileName(i int) string {
	return fmt.Sprintf("transform_parameter_%d.txt", i)
}

func (s *registrationService) Register(ctx context.Context, req entity.RegistrationRequest) (*entity.ResultEnvelope, error) {
	run := s.start(entity.RunRegister, req.FixedImage, req.MovingImage)
	run.Output = req.OutputImage

	envelope, err := s.register(ctx, req, run)
	s.finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

func (s *registrationService) register(ctx context.Context, req entity.RegistrationRequest, run *entity.Run) (*entity.ResultEnvelope, error) {
	if err := checkImage(s.storage, "fixed", req.FixedImage, elastix.CheckReadable); err != nil {
		return nil, err
	}
	if err := checkImage(s.storage, "moving", req.MovingImage, elastix.CheckReadable); err != nil {
		return nil, err
	}
	if req.OutputImage == "" {
		return nil, fmt.Errorf("%w: output image path is empty", entity.ErrInvalidInput)
	}
	format, err := elastix.OutputFormat(req.OutputImage)
	if err != nil {
		return nil, err
	}

	selector := req.ParameterMap
	if selector.IsEmpty() {
		selector = entity.ParameterMapSelector{{Preset: s.opts.DefaultParameterMap}}
	}
	run.ParameterMap = selector

	stages, err := elastix.ResolveSelector(selector, s.opts.DefaultParameterMap)
	if err != nil {
		return nil, err
	}
	run.Stages = len(stages)

	workDir, cleanup, err := newScratch(s.storage, run.ID, s.opts.KeepScratch)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	logrus.WithFields(logrus.Fields{
		"run_id": run.ID,
		"fixed":  req.FixedImage,
		"moving": req.MovingImage,
		"stages": len(stages),
	}).Info("starting registration")

	result, err := s.engine.Register(ctx, elastix.RegistrationJob{
		Fixed:   req.FixedImage,
		Moving:  req.MovingImage,
		Stages:  stages,
		WorkDir: workDir,
		Format:  format,
	})
	if err != nil {
		return nil, err
	}

	if err := s.storage.Copy(result.ResultImage, req.OutputImage); err != nil {
		return nil, fmt.Errorf("%w: Failed to write output image: %v", entity.ErrOutputWrite, err)
	}

	dir := filepath.Dir(req.OutputImage)
	for i, tp := range result.Transforms {
		path := filepath.Join(dir, TransformFileName(i))
		if err := elastix.Detach(tp).WriteFile(path); err != nil {
			return nil, fmt.Errorf("%w: Failed to write transform parameters %s: %v", entity.ErrOutputWrite, path, err)
		}
		run.TransformPaths = append(run.TransformPaths, path)
	}

	envelope := entity.Success("Image registration completed successfully.", req.OutputImage)
	envelope.TransformPaths = run.TransformPaths
	envelope.RunID = run.ID
	return envelope, nil
}
