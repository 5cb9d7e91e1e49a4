package config

import (
	"errors"
	"fmt"

	"imagededup/imageprocessor"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Cutoff < 0 {
		return errors.New("cutoff must not be negative")
	}
	if err := imageprocessor.ValidateHashSize(c.HashSize); err != nil {
		return fmt.Errorf("hash_size: %w", err)
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.DecodeTimeoutSeconds < 0 {
		return errors.New("decode_timeout_seconds must not be negative")
	}
	switch c.Codec {
	case CodecNative, CodecOpenCV:
	default:
		return fmt.Errorf("codec must be %q or %q, got %q", CodecNative, CodecOpenCV, c.Codec)
	}
	return nil
}
