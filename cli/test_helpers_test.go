package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"imagededup/imageprocessor"
)

func runCLI(t *testing.T, deps Dependencies, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCommand(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, got)
	}
}

func writeGradient(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*255/w + y*64/h) % 256)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixedLoader claims every file and returns the same image.
type fixedLoader struct {
	img image.Image
}

func (l *fixedLoader) Name() string             { return "fixed" }
func (l *fixedLoader) CanLoad(path string) bool { return true }

func (l *fixedLoader) LoadImage(path string, opts imageprocessor.DecodeOptions) (image.Image, error) {
	return l.img, nil
}

func (l *fixedLoader) LoadConfig(path string, opts imageprocessor.DecodeOptions) (image.Config, error) {
	b := l.img.Bounds()
	return image.Config{Width: b.Dx(), Height: b.Dy()}, nil
}
