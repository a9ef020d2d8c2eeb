// Package config loads pdfmerger settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileNames lists the files Load looks for, in order.
var FileNames = []string{"pdfmerger.yml", "pdfmerger.yaml"}

// Validation modes for the PDF codec.
const (
	ValidationRelaxed = "relaxed"
	ValidationStrict  = "strict"
)

// Config holds every setting of the command and the MCP server.
type Config struct {
	Preview  Preview `yaml:"preview"`
	Codec    Codec   `yaml:"codec"`
	LogLevel string  `yaml:"logLevel,omitempty"`
}

// Preview configures page rasterization.
type Preview struct {
	DPI       int           `yaml:"dpi,omitempty"`
	CacheSize int           `yaml:"cacheSize,omitempty"`
	MaxWidth  int           `yaml:"maxWidth,omitempty"`
	MaxHeight int           `yaml:"maxHeight,omitempty"`
	Pdftoppm  string        `yaml:"pdftoppm,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// Codec configures how documents are read and written.
type Codec struct {
	Validation string `yaml:"validation,omitempty"`
	// Flatten bakes rotation overrides into page content instead of
	// setting /Rotate.
	Flatten bool `yaml:"flatten,omitempty"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Preview: Preview{
			DPI:       150,
			CacheSize: 64,
			MaxWidth:  800,
			MaxHeight: 800,
			Timeout:   30 * time.Second,
		},
		Codec:    Codec{Validation: ValidationRelaxed},
		LogLevel: "info",
	}
}

// Load reads pdfmerger.yml or pdfmerger.yaml from dir. It returns the
// defaults, not an error, if neither exists.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads the file at path. Settings the file leaves out keep their
// default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	switch {
	case c.Preview.DPI <= 0:
		return fmt.Errorf("preview.dpi must be positive, got %d", c.Preview.DPI)
	case c.Preview.CacheSize <= 0:
		return fmt.Errorf("preview.cacheSize must be positive, got %d", c.Preview.CacheSize)
	case c.Preview.MaxWidth <= 0 || c.Preview.MaxHeight <= 0:
		return fmt.Errorf("preview.maxWidth and preview.maxHeight must be positive")
	case c.Preview.Timeout < 0:
		return fmt.Errorf("preview.timeout must not be negative")
	}
	switch c.Codec.Validation {
	case ValidationRelaxed, ValidationStrict:
	default:
		return fmt.Errorf("codec.validation must be %q or %q, got %q",
			ValidationRelaxed, ValidationStrict, c.Codec.Validation)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("logLevel: %w", err)
	}
	return l, nil
}

// Strict reports whether documents are validated strictly.
func (c *Config) Strict() bool {
	return c.Codec.Validation == ValidationStrict
}
