// Package imageprocessor is the codec and hashing layer: it opens files,
// decodes them through a chain of loaders and turns pixels into perceptual
// fingerprints.
package imageprocessor

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrUnsupportedFormat means no loader recognised the file content.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrIsDirectory means the path names a directory.
	ErrIsDirectory = errors.New("path is a directory")
	// ErrTruncated means the image data ended early.
	ErrTruncated = errors.New("truncated image data")
	// ErrDecodeTimeout means decoding exceeded DecodeOptions.Timeout.
	ErrDecodeTimeout = errors.New("image decode timed out")
)

// DecodeOptions are passed with every decode call.
type DecodeOptions struct {
	// AllowTruncated lets loaders that tolerate partial data retry files the
	// primary loaders rejected as truncated.
	AllowTruncated bool
	// Timeout bounds a single decode. Zero means no bound.
	Timeout time.Duration
}

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// Name identifies the loader in logs.
	Name() string

	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the whole image.
	LoadImage(path string, opts DecodeOptions) (image.Image, error)

	// LoadConfig reports the image dimensions, reading as little as possible.
	LoadConfig(path string, opts DecodeOptions) (image.Config, error)
}
