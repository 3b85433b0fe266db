package preview

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSize  = 256
	DefaultTiles = 8
	// MaxSize bounds the preview edge a request may ask for.
	MaxSize = 4096
)

// Previewer renders 2D quick-look images of registration inputs and results.
type Previewer interface {
	Thumbnail(src, dst string, size int) error
	Checkerboard(fixed, registered, dst string, size, tiles int) error
}

type imagePreviewer struct{}

func NewPreviewer() Previewer {
	return &imagePreviewer{}
}

func (p *imagePreviewer) Thumbnail(src, dst string, size int) error {
	img, err := p.load(src)
	if err != nil {
		return err
	}
	return p.save(Fit(img, size), dst)
}

func (p *imagePreviewer) Checkerboard(fixed, registered, dst string, size, tiles int) error {
	a, err := p.load(fixed)
	if err != nil {
		return err
	}
	b, err := p.load(registered)
	if err != nil {
		return err
	}
	return p.save(Checkerboard(a, b, size, tiles), dst)
}

// Fit scales img to fit in a size x size box, keeping the aspect ratio.
func Fit(img image.Image, size int) image.Image {
	if size <= 0 {
		size = DefaultSize
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

// Checkerboard interleaves tiles of fixed and registered, both fitted to
// size. Even tiles come from fixed, odd tiles from registered. tiles is
// clamped so no tile is smaller than one pixel.
func Checkerboard(fixed, registered image.Image, size, tiles int) image.Image {
	if tiles <= 0 {
		tiles = DefaultTiles
	}

	base := imaging.Grayscale(Fit(fixed, size))
	bounds := base.Bounds()
	overlay := imaging.Grayscale(imaging.Resize(registered, bounds.Dx(), bounds.Dy(), imaging.Lanczos))

	tiles = min(tiles, bounds.Dx(), bounds.Dy())
	tileW := max(1, (bounds.Dx()+tiles-1)/tiles)
	tileH := max(1, (bounds.Dy()+tiles-1)/tiles)

	dst := imaging.Clone(base)
	for y := 0; y < bounds.Dy(); y += tileH {
		for x := 0; x < bounds.Dx(); x += tileW {
			if (x/tileW+y/tileH)%2 == 0 {
				continue
			}
			rect := image.Rect(x, y, min(x+tileW, bounds.Dx()), min(y+tileH, bounds.Dy()))
			draw.Draw(dst, rect, overlay, rect.Min, draw.Src)
		}
	}
	return dst
}

func (p *imagePreviewer) load(path string) (image.Image, error) {
	if !IsRaster(path) {
		return nil, fmt.Errorf("%w: previews need a 2D raster image, got %q", entity.ErrUnsupportedFormat, path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageNotReadable, err)
	}
	return img, nil
}

func (p *imagePreviewer) save(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrUnsupportedFormat, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrOutputWrite, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrOutputWrite, err)
	}
	logrus.WithField("path", path).Debug("preview written")
	return nil
}

// IsRaster reports whether path has an extension imaging can decode.
func IsRaster(path string) bool {
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}
