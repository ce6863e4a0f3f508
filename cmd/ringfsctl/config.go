package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// imageConfig is the on-disk geometry and schema a flash image was (or will
// be) formatted with. ringfsctl needs these for every command — without
// them it cannot even compute a slot address — so they are read from a
// sidecar JSONC file instead of being repeated on every invocation.
type imageConfig struct {
	Version      uint32 `json:"version"`
	ObjectSize   int    `json:"object_size"`
	SectorSize   int    `json:"sector_size"`
	SectorOffset int    `json:"sector_offset"`
	SectorCount  int    `json:"sector_count"`
	RejectFull   bool   `json:"reject_write_when_full,omitempty"`
}

func defaultImageConfig() imageConfig {
	return imageConfig{
		Version:     1,
		ObjectSize:  32,
		SectorSize:  4096,
		SectorCount: 8,
	}
}

var errConfigInvalid = errors.New("invalid image config")

// configPath returns the sidecar config path for an image file: the image
// path with ".json" appended, e.g. "log.bin" -> "log.bin.json".
func configPath(imagePath string) string {
	return imagePath + ".json"
}

// loadImageConfig reads and standardizes a JSONC (JSON-with-comments) config
// file the way config.go in the ticket tool does, so ringfsctl image
// descriptors can carry a `// why` comment next to each field.
func loadImageConfig(path string) (imageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imageConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return imageConfig{}, fmt.Errorf("%w: %s: invalid JSONC: %w", errConfigInvalid, path, err)
	}

	cfg := defaultImageConfig()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return imageConfig{}, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}
	if cfg.ObjectSize <= 0 || cfg.SectorSize <= 0 || cfg.SectorCount <= 0 {
		return imageConfig{}, fmt.Errorf("%w: %s: object_size, sector_size and sector_count must be positive", errConfigInvalid, path)
	}
	return cfg, nil
}

// writeImageConfig renders cfg as JSONC and atomically writes it to path,
// the same atomic.WriteFile discipline the ticket tool uses for every
// config and cache write so a crash mid-write never leaves a half-written
// descriptor behind.
func writeImageConfig(path string, cfg imageConfig) error {
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicWriteFile(path, buf)
}

func ensureImageConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
