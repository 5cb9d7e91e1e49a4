package imageprocessor

import (
	"fmt"
	"runtime/debug"

	"imagededup/logging"
	"imagededup/types"
)

// ImageProcessor ties the loader registry to a hasher with fixed options.
// It is safe for concurrent use as long as its loaders are.
type ImageProcessor struct {
	Registry  *ImageLoaderRegistry
	Hasher    Hasher
	Options   DecodeOptions
	HashSize  int
	DebugMode bool
}

// NewImageProcessor creates a processor. A nil registry means the native
// loader only, a nil hasher means the goimagehash perceptual hash.
func NewImageProcessor(registry *ImageLoaderRegistry, hasher Hasher, hashSize int, opts DecodeOptions) *ImageProcessor {
	if registry == nil {
		registry = NewImageLoaderRegistry()
	}
	if hasher == nil {
		hasher = PerceptionHasher{}
	}
	return &ImageProcessor{
		Registry: registry,
		Hasher:   hasher,
		Options:  opts,
		HashSize: hashSize,
	}
}

// ProcessImage decodes path and fingerprints it.
func (p *ImageProcessor) ProcessImage(path string) (fp types.Fingerprint, err error) {
	// A broken decoder must cost one file, not the run.
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic while processing %s: %v\n%s", path, r, debug.Stack())
			fp = types.Fingerprint{}
			err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()

	img, err := p.Registry.Decode(path, p.Options)
	if err != nil {
		return types.Fingerprint{}, err
	}

	fp, err = p.Hasher.Fingerprint(img, p.HashSize)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("cannot fingerprint %s: %w", path, err)
	}

	if p.DebugMode {
		logging.DebugLog("Fingerprint %s: %s", path, fp)
	}
	return fp, nil
}

// PixelCount returns width × height of path.
func (p *ImageProcessor) PixelCount(path string) (int64, error) {
	w, h, err := p.Registry.Dimensions(path, p.Options)
	if err != nil {
		return 0, err
	}
	return int64(w) * int64(h), nil
}
