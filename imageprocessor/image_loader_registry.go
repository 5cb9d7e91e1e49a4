package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"imagededup/logging"
)

// ImageLoaderRegistry manages available image loaders. Primary loaders are
// tried in order; fallback loaders are consulted only for truncated files
// when DecodeOptions.AllowTruncated is set.
type ImageLoaderRegistry struct {
	loaders   []ImageLoader
	fallbacks []ImageLoader
}

// NewImageLoaderRegistry creates a registry with the native Go loader.
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	return &ImageLoaderRegistry{
		loaders: []ImageLoader{NewStandardImageLoader()},
	}
}

// NewImageLoaderRegistryWith creates a registry with exactly the given primary
// loaders, tried in order.
func NewImageLoaderRegistryWith(loaders ...ImageLoader) *ImageLoaderRegistry {
	return &ImageLoaderRegistry{loaders: loaders}
}

// RegisterFallback adds a loader that tolerates truncated data.
func (r *ImageLoaderRegistry) RegisterFallback(loader ImageLoader) {
	r.fallbacks = append(r.fallbacks, loader)
}

// Decode decodes path with the first loader that succeeds.
func (r *ImageLoaderRegistry) Decode(path string, opts DecodeOptions) (image.Image, error) {
	return withTimeout(path, opts.Timeout, func() (image.Image, error) {
		return r.run(path, opts, func(l ImageLoader) (image.Image, error) {
			return l.LoadImage(path, opts)
		})
	})
}

// Dimensions returns width and height of path.
func (r *ImageLoaderRegistry) Dimensions(path string, opts DecodeOptions) (int, int, error) {
	type dims struct{ w, h int }
	var d dims
	_, err := withTimeout(path, opts.Timeout, func() (image.Image, error) {
		_, err := r.run(path, opts, func(l ImageLoader) (image.Image, error) {
			cfg, err := l.LoadConfig(path, opts)
			if err != nil {
				return nil, err
			}
			d = dims{cfg.Width, cfg.Height}
			return nil, nil
		})
		return nil, err
	})
	if err != nil {
		return 0, 0, err
	}
	return d.w, d.h, nil
}

func (r *ImageLoaderRegistry) run(path string, opts DecodeOptions, load func(ImageLoader) (image.Image, error)) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	var lastErr error
	truncated := false
	attempted := false
	for _, loader := range r.loaders {
		if !loader.CanLoad(path) {
			continue
		}
		attempted = true
		img, err := load(loader)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrTruncated) {
			truncated = true
		}
		logging.DebugLog("%s loader failed for %s: %v", loader.Name(), path, err)
		lastErr = preferSpecific(lastErr, err)
	}

	if truncated && opts.AllowTruncated {
		for _, loader := range r.fallbacks {
			if !loader.CanLoad(path) {
				continue
			}
			img, err := load(loader)
			if err == nil {
				logging.LogInfo("Loaded truncated image %s with %s loader", path, loader.Name())
				return img, nil
			}
			logging.DebugLog("%s fallback failed for %s: %v", loader.Name(), path, err)
		}
	}

	if !attempted {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return nil, lastErr
}

// preferSpecific keeps the most informative error across loaders: anything
// other than ErrUnsupportedFormat means some loader recognised the file.
func preferSpecific(current, next error) error {
	if current == nil {
		return next
	}
	if errors.Is(current, ErrUnsupportedFormat) && !errors.Is(next, ErrUnsupportedFormat) {
		return next
	}
	return current
}

func withTimeout(path string, timeout time.Duration, fn func() (image.Image, error)) (image.Image, error) {
	if timeout <= 0 {
		return fn()
	}

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := fn()
		done <- result{img, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.img, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%s after %v: %w", path, timeout, ErrDecodeTimeout)
	}
}
