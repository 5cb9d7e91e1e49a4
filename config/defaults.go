package config

const (
	defaultCutoff        = 0
	defaultHashSize      = 16
	defaultCodec         = CodecNative
	defaultLogFile       = "imagededup.log"
	defaultConfigPath    = "~/.config/imagededup/config.toml"
	defaultProjectConfig = "imagededup.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Cutoff:         defaultCutoff,
		DeleteFiles:    false,
		HashSize:       defaultHashSize,
		Workers:        0,
		AllowTruncated: true,
		Codec:          defaultCodec,
		Logging: Logging{
			File: defaultLogFile,
		},
	}
}
