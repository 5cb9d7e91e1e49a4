package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imagededup/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Cutoff != 0 || cfg.HashSize != 16 || cfg.DeleteFiles {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Codec != config.CodecNative || !cfg.AllowTruncated {
		t.Fatalf("unexpected decoder defaults: %+v", cfg)
	}
	if cfg.Logging.File != "imagededup.log" {
		t.Fatalf("unexpected log file: %q", cfg.Logging.File)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
folder = "~/Pictures"
cutoff = 5
delete_files = true
hash_size = 8
workers = 2
decode_timeout_seconds = 3
codec = " OpenCV "

[logging]
debug = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be used, got %s (exists %v)", path, resolved, exists)
	}
	if cfg.Folder != filepath.Join(home, "Pictures") {
		t.Fatalf("expected folder to expand, got %q", cfg.Folder)
	}
	if cfg.Cutoff != 5 || !cfg.DeleteFiles || cfg.HashSize != 8 || cfg.Workers != 2 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.Codec != config.CodecOpenCV {
		t.Fatalf("expected codec to normalize, got %q", cfg.Codec)
	}
	if cfg.DecodeTimeout() != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.DecodeTimeout())
	}
	if !cfg.Logging.Debug || cfg.Logging.File != "imagededup.log" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "colour = true\n",
		"odd hash size":   "hash_size = 12\n",
		"negative cutoff": "cutoff = -1\n",
		"bad codec":       "codec = \"magick\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists || cfg.HashSize != 16 {
		t.Fatalf("unexpected sample config: %+v", cfg)
	}

	err = config.CreateSample(path)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file to be kept, got %v", err)
	}
}
