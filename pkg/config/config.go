// Package config defines the store configuration recognized by the
// translation index and loads it from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the options the compacted store recognizes.
type Config struct {
	// CachePath is the absolute path to the cache file. Empty disables
	// caching.
	CachePath string `yaml:"cache_path" validate:"omitempty"`

	// CacheDigest switches the fingerprint from path+mtime to
	// file-content digests.
	CacheDigest bool `yaml:"cache_digest"`

	// Separator joins nested map keys into flat keys.
	Separator string `yaml:"separator" validate:"required,max=8"`

	// LogLevel controls the library logger when one is attached.
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Separator: ".",
		LogLevel:  "info",
	}
}

var validate = validator.New()

// Validate checks field constraints plus the cross-field rules the
// struct tags cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CachePath != "" && !filepath.IsAbs(c.CachePath) {
		return fmt.Errorf("config: cache_path must be absolute, got %q", c.CachePath)
	}
	return nil
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
