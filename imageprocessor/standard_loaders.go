package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// StandardImageLoader decodes every format registered with the image
// package: gif, jpeg and png from the standard library, bmp, tiff and webp
// from golang.org/x/image. Formats are sniffed from content, not extension.
type StandardImageLoader struct{}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{}
}

// Name implements ImageLoader.
func (l *StandardImageLoader) Name() string {
	return "native"
}

// CanLoad implements ImageLoader. Any regular file is worth sniffing.
func (l *StandardImageLoader) CanLoad(path string) bool {
	return true
}

// LoadImage decodes the file. The handle is closed before returning.
func (l *StandardImageLoader) LoadImage(path string, opts DecodeOptions) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, classifyDecodeError(path, err, headerDecodes(f))
	}
	return img, nil
}

// LoadConfig reads only the image header.
func (l *StandardImageLoader) LoadConfig(path string, opts DecodeOptions) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, classifyDecodeError(path, err, false)
	}
	return cfg, nil
}

// headerDecodes rewinds f and reports whether its image header is intact.
func headerDecodes(f io.ReadSeeker) bool {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	_, _, err := image.DecodeConfig(f)
	return err == nil
}

// classifyDecodeError maps decoder errors onto the registry's error classes.
// A file whose header decodes but whose pixel data does not is treated as
// truncated: png reports a cut-off stream as "not enough pixel data", not as
// an unexpected EOF.
func classifyDecodeError(path string, err error, headerOK bool) error {
	switch {
	case errors.Is(err, image.ErrFormat):
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF), headerOK:
		return fmt.Errorf("%s: %w (%v)", path, ErrTruncated, err)
	default:
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
}
