// Package opencv provides an image loader backed by OpenCV. OpenCV keeps
// whatever it managed to decode from a truncated JPEG or PNG, which makes it
// the fallback for partially written files when truncation is allowed.
package opencv

import (
	"fmt"
	"image"

	"imagededup/imageprocessor"

	"gocv.io/x/gocv"
)

// Loader decodes images with gocv.IMRead.
type Loader struct{}

// NewLoader returns an OpenCV loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Name implements imageprocessor.ImageLoader.
func (l *Loader) Name() string {
	return "opencv"
}

// CanLoad implements imageprocessor.ImageLoader. RAW files are left to the
// exiftool loader.
func (l *Loader) CanLoad(path string) bool {
	return !imageprocessor.IsRawFormat(path)
}

// LoadImage reads the file in colour and converts it to an image.Image.
// OpenCV silently keeps partial data, so unless opts.AllowTruncated is set a
// PNG or JPEG without its end marker is rejected first. The Mat is released
// before returning.
func (l *Loader) LoadImage(path string, opts imageprocessor.DecodeOptions) (image.Image, error) {
	if !opts.AllowTruncated {
		if err := imageprocessor.CheckComplete(path); err != nil {
			return nil, err
		}
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%s: opencv could not read file: %w", path, imageprocessor.ErrUnsupportedFormat)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return img, nil
}

// LoadConfig decodes the file to learn its size; OpenCV has no header-only read.
func (l *Loader) LoadConfig(path string, opts imageprocessor.DecodeOptions) (image.Config, error) {
	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()

	if mat.Empty() {
		return image.Config{}, fmt.Errorf("%s: opencv could not read file: %w", path, imageprocessor.ErrUnsupportedFormat)
	}
	return image.Config{Width: mat.Cols(), Height: mat.Rows()}, nil
}
