package config

// This file loads the optional YAML config file and environment overrides.
// Both only touch the keys they actually set, so defaults hold for the rest.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable read by [ApplyEnv].
const EnvPrefix = "PDFCOMPRESS_"

// LoadFile decodes a YAML config file on top of cfg. Keys absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies PDFCOMPRESS_* variables from lookup into cfg. lookup is
// usually os.LookupEnv; tests pass a map-backed function.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"OPTIMIZE_IMAGES", &cfg.Options.OptimizeImages},
		{"REMOVE_METADATA", &cfg.Options.RemoveMetadata},
		{"GRAYSCALE", &cfg.Options.Grayscale},
		{"RECURSIVE", &cfg.Recursive},
		{"STRICT", &cfg.Strict},
		{"VERBOSE", &cfg.Verbose},
	}
	for _, b := range bools {
		if v, ok := get(b.key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s must be true or false (got %q)", EnvPrefix, b.key, v)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"IMAGE_QUALITY", &cfg.Options.ImageQuality},
		{"COMPRESSION_LEVEL", &cfg.Options.CompressionLevel},
		{"WORKERS", &cfg.Workers},
	}
	for _, n := range ints {
		if v, ok := get(n.key); ok {
			parsed, err := parseInt(v, EnvPrefix+n.key)
			if err != nil {
				return err
			}
			*n.dst = parsed
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"SUFFIX", &cfg.Suffix},
		{"JOURNAL", &cfg.JournalDir},
		{"UPLOAD", &cfg.UploadURL},
		{"LOG_FILE", &cfg.LogFile},
		{"ADDR", &cfg.Serve.Addr},
		{"TEMP_DIR", &cfg.Serve.TempDir},
		{"AUTH_SECRET", &cfg.Serve.AuthSecret},
		{"AUTH_ISSUER", &cfg.Serve.AuthIssuer},
	}
	for _, s := range strs {
		if v, ok := get(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := get("COLOR"); ok {
		cfg.ColorMode = ColorMode(strings.ToLower(v))
	}
	if v, ok := get("TOOL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTOOL_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.ToolTimeout = d
	}
	if v, ok := get("MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_FILE_SIZE must be a whole number (got %q)", EnvPrefix, v)
		}
		cfg.Serve.MaxFileSize = n
	}
	return nil
}
