package imageprocessor

import (
	"errors"
	"fmt"
	"image"

	"imagededup/types"

	"github.com/corona10/goimagehash"
)

const (
	// DefaultHashSize is the side of the DCT bit grid; fingerprints carry
	// DefaultHashSize² bits.
	DefaultHashSize = 16
	// MaxHashSize bounds the grid. The hasher resizes to hashSize² pixels a
	// side before the DCT, so cost grows quickly.
	MaxHashSize = 32
)

// ErrHash wraps failures of the perceptual hasher.
var ErrHash = errors.New("perceptual hash failed")

// Hasher turns decoded pixels into a fingerprint of hashSize² bits.
type Hasher interface {
	Fingerprint(img image.Image, hashSize int) (types.Fingerprint, error)
}

// PerceptionHasher is the DCT perceptual hash from goimagehash.
type PerceptionHasher struct{}

// Fingerprint implements Hasher.
func (PerceptionHasher) Fingerprint(img image.Image, hashSize int) (types.Fingerprint, error) {
	if err := ValidateHashSize(hashSize); err != nil {
		return types.Fingerprint{}, err
	}
	if img == nil {
		return types.Fingerprint{}, fmt.Errorf("%w: nil image", ErrHash)
	}
	hash, err := goimagehash.ExtPerceptionHash(img, hashSize, hashSize)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("%w: %v", ErrHash, err)
	}
	return types.NewFingerprint(hash), nil
}

// ValidateHashSize checks that hashSize² is a power of two no larger than
// MaxHashSize², which is what the DCT hash requires.
func ValidateHashSize(hashSize int) error {
	if hashSize < 2 || hashSize > MaxHashSize {
		return fmt.Errorf("hash size must be between 2 and %d, got %d", MaxHashSize, hashSize)
	}
	if hashSize&(hashSize-1) != 0 {
		return fmt.Errorf("hash size must be a power of two, got %d", hashSize)
	}
	return nil
}
