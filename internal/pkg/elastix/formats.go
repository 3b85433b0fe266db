package elastix

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ds124wfegd/elastix-api/internal/entity"
)

var readableFormats = map[string]bool{
	"nrrd": true, "nhdr": true,
	"nii": true, "nii.gz": true,
	"mha": true, "mhd": true,
	"hdr": true, "img": true,
	"tif": true, "tiff": true,
	"png": true, "jpg": true, "jpeg": true, "bmp": true,
	"dcm": true,
}

// Single-file formats only: detached headers (nhdr, mhd) reference their data
// file by name. jpeg and bmp cannot hold float pixels.
var writableFormats = map[string]bool{
	"nrrd": true,
	"nii": true, "nii.gz": true,
	"mha": true,
	"tif": true, "tiff": true,
	"png": true,
}

// Extension returns the image extension without the dot; ".nii.gz" is one extension.
func Extension(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".nii.gz") {
		return "nii.gz"
	}
	return strings.TrimPrefix(filepath.Ext(lower), ".")
}

func CheckReadable(path string) error {
	if !readableFormats[Extension(path)] {
		return fmt.Errorf("%w: cannot read %q", entity.ErrUnsupportedFormat, path)
	}
	return nil
}

// OutputFormat is the ResultImageFormat elastix needs to produce path.
func OutputFormat(path string) (string, error) {
	ext := Extension(path)
	if !writableFormats[ext] {
		return "", fmt.Errorf("%w: cannot write %q", entity.ErrUnsupportedFormat, path)
	}
	return ext, nil
}

// resultPixelType overrides ResultImagePixelType for formats without float
// support; "" keeps the map's value.
func resultPixelType(format string) string {
	if format == "png" {
		return "unsigned char"
	}
	return ""
}
