package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/preview"
)

func rasterOnly(path string) error {
	if !preview.IsRaster(path) {
		return fmt.Errorf("%w: previews need a 2D raster image, got %q", entity.ErrUnsupportedFormat, path)
	}
	return nil
}

func (s *previewService) Preview(ctx context.Context, req entity.PreviewRequest) (*entity.ResultEnvelope, error) {
	inputs := []string{req.Image}
	if req.FixedImage != "" {
		inputs = append(inputs, req.FixedImage)
	}
	run := s.start(entity.RunPreview, inputs...)
	run.Output = req.Output

	err := s.preview(req)
	s.finish(ctx, run, err)
	if err != nil {
		return nil, err
	}

	envelope := entity.Success("Preview written successfully.", req.Output)
	envelope.RunID = run.ID
	return envelope, nil
}

func (s *previewService) preview(req entity.PreviewRequest) error {
	if err := checkImage(s.storage, "preview", req.Image, rasterOnly); err != nil {
		return err
	}
	if req.Output == "" {
		return fmt.Errorf("%w: output image path is empty", entity.ErrInvalidInput)
	}
	if err := rasterOnly(req.Output); err != nil {
		return err
	}

	size := req.Size
	if size <= 0 {
		size = preview.DefaultSize
	}
	if size > preview.MaxSize {
		return fmt.Errorf("%w: preview size %d is above %d", entity.ErrInvalidInput, size, preview.MaxSize)
	}

	if req.FixedImage == "" {
		return s.previewer.Thumbnail(req.Image, req.Output, size)
	}

	if err := checkImage(s.storage, "fixed", req.FixedImage, rasterOnly); err != nil {
		return err
	}
	tiles := req.Tiles
	if tiles <= 0 {
		tiles = preview.DefaultTiles
	}
	// a tile is at least one pixel of the fitted image
	tiles = min(tiles, size)
	return s.previewer.Checkerboard(req.FixedImage, req.Image, req.Output, size, tiles)
}
