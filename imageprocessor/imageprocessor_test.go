package imageprocessor_test

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagededup/imageprocessor"
)

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 80, A: 255})
		}
	}
	return img
}

func noise(w, h int) image.Image {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// cutInHalf rewrites path keeping only the first half of its bytes.
func cutInHalf(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)/2], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func writeTruncatedPNG(t *testing.T, path string) {
	t.Helper()
	writePNG(t, path, noise(128, 128))
	cutInHalf(t, path)
}

func writeTruncatedJPEG(t *testing.T, path string) {
	t.Helper()
	writeJPEG(t, path, noise(256, 256))
	cutInHalf(t, path)
}

// stubLoader returns a fixed image after an optional delay.
type stubLoader struct {
	name  string
	delay time.Duration
	img   image.Image
	calls int
}

func (s *stubLoader) Name() string             { return s.name }
func (s *stubLoader) CanLoad(path string) bool { return true }

func (s *stubLoader) LoadImage(path string, opts imageprocessor.DecodeOptions) (image.Image, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.img, nil
}

func (s *stubLoader) LoadConfig(path string, opts imageprocessor.DecodeOptions) (image.Config, error) {
	b := s.img.Bounds()
	return image.Config{Width: b.Dx(), Height: b.Dy()}, nil
}

func TestRegistryClassifiesFiles(t *testing.T) {
	dir := t.TempDir()
	registry := imageprocessor.NewImageLoaderRegistry()
	opts := imageprocessor.DecodeOptions{}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Decode(text, opts); !errors.Is(err, imageprocessor.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for text file, got %v", err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Decode(sub, opts); !errors.Is(err, imageprocessor.ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}

	if _, err := registry.Decode(filepath.Join(dir, "missing.png"), opts); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	good := filepath.Join(dir, "good.png")
	writePNG(t, good, gradient(30, 20))
	img, err := registry.Decode(good, opts)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	w, h, err := registry.Dimensions(good, opts)
	if err != nil || w != 30 || h != 20 {
		t.Fatalf("unexpected dimensions %dx%d (%v)", w, h, err)
	}
}

func TestRegistryTruncatedFallback(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "cut.png")
	writeTruncatedPNG(t, pngPath)
	jpegPath := filepath.Join(dir, "cut.jpg")
	writeTruncatedJPEG(t, jpegPath)

	for _, path := range []string{pngPath, jpegPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			assertTruncatedFallback(t, path)
		})
	}
}

func assertTruncatedFallback(t *testing.T, path string) {
	t.Helper()
	fallback := &stubLoader{name: "stub", img: gradient(8, 8)}
	registry := imageprocessor.NewImageLoaderRegistry()
	registry.RegisterFallback(fallback)

	if _, err := registry.Decode(path, imageprocessor.DecodeOptions{}); !errors.Is(err, imageprocessor.ErrTruncated) {
		t.Fatalf("expected ErrTruncated without AllowTruncated, got %v", err)
	}
	if fallback.calls != 0 {
		t.Fatal("fallback must not run without AllowTruncated")
	}

	img, err := registry.Decode(path, imageprocessor.DecodeOptions{AllowTruncated: true})
	if err != nil {
		t.Fatalf("expected fallback to decode, got %v", err)
	}
	if img != fallback.img || fallback.calls != 1 {
		t.Fatal("expected the fallback loader's image")
	}
}

func TestRegistryFallbackIgnoresUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	fallback := &stubLoader{name: "stub", img: gradient(8, 8)}
	registry := imageprocessor.NewImageLoaderRegistry()
	registry.RegisterFallback(fallback)

	if _, err := registry.Decode(path, imageprocessor.DecodeOptions{AllowTruncated: true}); !errors.Is(err, imageprocessor.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if fallback.calls != 0 {
		t.Fatal("fallback must only see truncated files")
	}
}

func TestRegistryDecodeTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.png")
	writePNG(t, path, gradient(4, 4))

	slow := &stubLoader{name: "slow", delay: 500 * time.Millisecond, img: gradient(4, 4)}
	registry := imageprocessor.NewImageLoaderRegistryWith(slow)

	_, err := registry.Decode(path, imageprocessor.DecodeOptions{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, imageprocessor.ErrDecodeTimeout) {
		t.Fatalf("expected ErrDecodeTimeout, got %v", err)
	}
}

func TestValidateHashSize(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		if err := imageprocessor.ValidateHashSize(n); err != nil {
			t.Fatalf("hash size %d rejected: %v", n, err)
		}
	}
	for _, n := range []int{0, 1, 3, 12, 64} {
		if err := imageprocessor.ValidateHashSize(n); err == nil {
			t.Fatalf("hash size %d accepted", n)
		}
	}
}

func TestProcessImageIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, gradient(64, 48))
	writePNG(t, b, gradient(64, 48))

	processor := imageprocessor.NewImageProcessor(nil, nil, 8, imageprocessor.DecodeOptions{})
	fa, err := processor.ProcessImage(a)
	if err != nil {
		t.Fatalf("ProcessImage returned error: %v", err)
	}
	fb, err := processor.ProcessImage(b)
	if err != nil {
		t.Fatalf("ProcessImage returned error: %v", err)
	}
	if fa.Bits() != 64 {
		t.Fatalf("expected 64-bit fingerprint, got %d", fa.Bits())
	}
	if d, err := fa.Distance(fb); err != nil || d != 0 {
		t.Fatalf("expected identical fingerprints, got distance %d (%v)", d, err)
	}

	px, err := processor.PixelCount(a)
	if err != nil || px != 64*48 {
		t.Fatalf("unexpected pixel count %d (%v)", px, err)
	}
}

func TestRawFormatDetection(t *testing.T) {
	if !imageprocessor.IsRawFormat("/x/IMG_0001.CR2") {
		t.Fatal("expected CR2 to be RAW")
	}
	if imageprocessor.IsRawFormat("/x/photo.jpg") {
		t.Fatal("expected jpg not to be RAW")
	}
	if imageprocessor.GetFileFormat("/x/file") != imageprocessor.FormatUnknown {
		t.Fatal("expected unknown format without extension")
	}
}

func TestRegistryTruncatedKeepsDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.png")
	writeTruncatedPNG(t, path)

	w, h, err := imageprocessor.NewImageLoaderRegistry().Dimensions(path, imageprocessor.DecodeOptions{})
	if err != nil || w != 128 || h != 128 {
		t.Fatalf("expected header dimensions of a truncated file, got %dx%d (%v)", w, h, err)
	}
}

func TestCheckComplete(t *testing.T) {
	dir := t.TempDir()

	fullPNG := filepath.Join(dir, "full.png")
	writePNG(t, fullPNG, noise(64, 64))
	fullJPEG := filepath.Join(dir, "full.jpg")
	writeJPEG(t, fullJPEG, noise(64, 64))
	for _, path := range []string{fullPNG, fullJPEG} {
		if err := imageprocessor.CheckComplete(path); err != nil {
			t.Fatalf("%s: expected complete file, got %v", filepath.Base(path), err)
		}
	}

	cutPNG := filepath.Join(dir, "cut.png")
	writeTruncatedPNG(t, cutPNG)
	cutJPEG := filepath.Join(dir, "cut.jpg")
	writeTruncatedJPEG(t, cutJPEG)
	for _, path := range []string{cutPNG, cutJPEG} {
		if err := imageprocessor.CheckComplete(path); !errors.Is(err, imageprocessor.ErrTruncated) {
			t.Fatalf("%s: expected ErrTruncated, got %v", filepath.Base(path), err)
		}
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := imageprocessor.CheckComplete(text); err != nil {
		t.Fatalf("expected other formats to pass, got %v", err)
	}
}
