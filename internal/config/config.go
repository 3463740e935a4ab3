// Package config loads ormpack settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Output formats accepted by Config.OutputFormat.
const (
	OutputPNG  = "png"
	OutputTIFF = "tiff"
)

// Config holds settings shared by every ormpack command.
type Config struct {
	ContentRoot   string `env:"ORMPACK_CONTENT_ROOT" envDefault:"Content"`
	RegistryPath  string `env:"ORMPACK_REGISTRY_PATH" envDefault:".ormpack/registry.db"`
	Workers       int    `env:"ORMPACK_WORKERS" envDefault:"0"`
	StrictFormats bool   `env:"ORMPACK_STRICT_FORMATS" envDefault:"false"`
	OutputFormat  string `env:"ORMPACK_OUTPUT_FORMAT" envDefault:"png"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes OutputFormat and rejects values the commands cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ContentRoot) == "" {
		return fmt.Errorf("content root is required")
	}
	if strings.TrimSpace(c.RegistryPath) == "" {
		return fmt.Errorf("registry path is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	switch c.OutputFormat {
	case OutputPNG, OutputTIFF:
	case "tif":
		c.OutputFormat = OutputTIFF
	default:
		return fmt.Errorf("unknown output format %q", c.OutputFormat)
	}
	return nil
}

// OutputExt returns the file extension for OutputFormat.
func (c Config) OutputExt() string {
	if c.OutputFormat == OutputTIFF {
		return ".tif"
	}
	return ".png"
}
