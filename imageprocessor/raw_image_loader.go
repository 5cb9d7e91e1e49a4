package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"imagededup/logging"

	"github.com/barasher/go-exiftool"
)

// Preview tags in order of preference; the first one holding a decodable
// image is used for fingerprinting.
var rawPreviewTags = []string{
	"JpgFromRaw",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// RawImageLoader handles RAW camera formats by decoding the JPEG preview
// embedded in the file. Dimensions come from the RAW metadata, so pixel
// counts reflect the sensor image, not the preview.
type RawImageLoader struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewRawImageLoader starts a long-lived exiftool process. It fails when the
// exiftool binary is not installed.
func NewRawImageLoader() (*RawImageLoader, error) {
	et, err := exiftool.NewExiftool(exiftool.ExtractAllBinaryMetadata())
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &RawImageLoader{et: et}, nil
}

// Close stops the exiftool process.
func (l *RawImageLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.et == nil {
		return nil
	}
	err := l.et.Close()
	l.et = nil
	return err
}

// Name implements ImageLoader.
func (l *RawImageLoader) Name() string {
	return "exiftool"
}

// CanLoad implements ImageLoader.
func (l *RawImageLoader) CanLoad(path string) bool {
	return IsRawFormat(path)
}

// LoadImage decodes the largest usable embedded preview.
func (l *RawImageLoader) LoadImage(path string, opts DecodeOptions) (image.Image, error) {
	meta, err := l.metadata(path)
	if err != nil {
		return nil, err
	}

	for _, tag := range rawPreviewTags {
		data, ok := binaryField(meta, tag)
		if !ok {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logging.LogWarning("RAW preview %s of %s did not decode: %v", tag, path, err)
			continue
		}
		logging.DebugLog("Decoded RAW preview %s of %s", tag, path)
		return img, nil
	}
	return nil, fmt.Errorf("%s: no decodable preview: %w", path, ErrUnsupportedFormat)
}

// LoadConfig reports the RAW image size from metadata.
func (l *RawImageLoader) LoadConfig(path string, opts DecodeOptions) (image.Config, error) {
	meta, err := l.metadata(path)
	if err != nil {
		return image.Config{}, err
	}
	width, werr := meta.GetInt("ImageWidth")
	height, herr := meta.GetInt("ImageHeight")
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return image.Config{}, fmt.Errorf("%s: missing image size in metadata", path)
	}
	return image.Config{Width: int(width), Height: int(height)}, nil
}

func (l *RawImageLoader) metadata(path string) (exiftool.FileMetadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.et == nil {
		return exiftool.FileMetadata{}, errors.New("exiftool loader is closed")
	}
	infos := l.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return exiftool.FileMetadata{}, fmt.Errorf("%s: no metadata extracted", path)
	}
	if infos[0].Err != nil {
		return exiftool.FileMetadata{}, fmt.Errorf("%s: %w", path, infos[0].Err)
	}
	return infos[0], nil
}

// binaryField decodes a "base64:" field produced by ExtractAllBinaryMetadata.
func binaryField(meta exiftool.FileMetadata, tag string) ([]byte, bool) {
	raw, err := meta.GetString(tag)
	if err != nil {
		return nil, false
	}
	encoded, ok := strings.CutPrefix(raw, "base64:")
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
