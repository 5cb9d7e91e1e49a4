package imageprocessor

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var (
	pngMagic    = []byte("\x89PNG\r\n\x1a\n")
	pngTrailer  = []byte("IEND\xaeB`\x82")
	jpegMagic   = []byte{0xff, 0xd8}
	jpegTrailer = []byte{0xff, 0xd9}
)

// trailerWindow bounds how far from the end of a file the end marker is
// searched for; some cameras append data after the JPEG end marker.
const trailerWindow = 64 << 10

// CheckComplete returns ErrTruncated for a PNG or JPEG file whose end marker
// is missing. Other formats are not inspected and always pass.
func CheckComplete(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(pngMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	head = head[:n]

	var trailer []byte
	switch {
	case bytes.HasPrefix(head, pngMagic):
		trailer = pngTrailer
	case bytes.HasPrefix(head, jpegMagic):
		trailer = jpegTrailer
	default:
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	size := info.Size()
	window := int64(trailerWindow)
	if size < window {
		window = size
	}
	tail := make([]byte, window)
	if _, err := f.ReadAt(tail, size-window); err != nil && err != io.EOF {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !bytes.Contains(tail, trailer) {
		return fmt.Errorf("%s: end marker missing: %w", path, ErrTruncated)
	}
	return nil
}
