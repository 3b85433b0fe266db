package service

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/elastix-api/internal/database"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/kafka"
	"github.com/ds124wfegd/elastix-api/internal/pkg/preview"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewService(t *testing.T) {
	base := t.TempDir()
	st := storage.NewFileStorage(base)
	svc := NewPreviewService(st, preview.NewPreviewer(), database.NewRunRepository(st), kafka.NewProducer(false, "", ""))

	require.NoError(t, imaging.Save(image.NewGray(image.Rect(0, 0, 120, 60)), filepath.Join(base, "fixed.png")))
	require.NoError(t, imaging.Save(image.NewGray(image.Rect(0, 0, 120, 60)), filepath.Join(base, "registered.png")))

	tests := []struct {
		name    string
		req     entity.PreviewRequest
		wantErr error
	}{
		{
			name: "thumbnail",
			req:  entity.PreviewRequest{Image: "registered.png", Output: "previews/thumb.png", Size: 60},
		},
		{
			name: "checkerboard",
			req:  entity.PreviewRequest{Image: "registered.png", FixedImage: "fixed.png", Output: "previews/board.png"},
		},
		{
			name: "tiles above the image size",
			req:  entity.PreviewRequest{Image: "registered.png", FixedImage: "fixed.png", Output: "previews/fine.png", Size: 60, Tiles: 1_000_000},
		},
		{
			name:    "size above the limit",
			req:     entity.PreviewRequest{Image: "registered.png", Output: "previews/huge.png", Size: preview.MaxSize + 1},
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "volume input",
			req:     entity.PreviewRequest{Image: "registered_image.nrrd", Output: "previews/thumb.png"},
			wantErr: entity.ErrUnsupportedFormat,
		},
		{
			name:    "missing fixed image",
			req:     entity.PreviewRequest{Image: "registered.png", FixedImage: "gone.png", Output: "previews/board.png"},
			wantErr: entity.ErrImageNotReadable,
		},
		{
			name:    "volume output",
			req:     entity.PreviewRequest{Image: "registered.png", Output: "previews/board.nrrd"},
			wantErr: entity.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := svc.Preview(context.Background(), storage.ResolvePreview(st, tt.req))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.StatusSuccess, env.Status)
			assert.FileExists(t, env.OutputImagePath)
		})
	}
}
