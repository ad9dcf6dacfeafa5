// Package config holds the server settings and loads them from TOML or YAML
// files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPort         = errors.New("invalid port")
	ErrInvalidDocumentRoot = errors.New("invalid document root")
	ErrInvalidWorkers      = errors.New("workers must be at least 1")
	ErrUnknownFormat       = errors.New("unknown config file format")
)

// Config is the full server configuration.
type Config struct {
	Port         int      `toml:"port" yaml:"port"`
	DocumentRoot string   `toml:"document_root" yaml:"document_root"`
	Workers      int      `toml:"workers" yaml:"workers"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`

	Log     LogConfig     `toml:"log" yaml:"log"`
	Listing ListingConfig `toml:"listing" yaml:"listing"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
	Color *bool  `toml:"color" yaml:"color"` // nil: colour when stdout is a terminal
}

type ListingConfig struct {
	Language   string `toml:"language" yaml:"language"`       // BCP 47 tag for size formatting
	DateFormat string `toml:"date_format" yaml:"date_format"` // Go time layout
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:         8080,
		DocumentRoot: ".",
		Workers:      1,
		Log: LogConfig{
			Level: "info",
		},
		Listing: ListingConfig{
			Language:   "en",
			DateFormat: "2006-01-02 15:04:05",
		},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .toml, or .yaml/.yml.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	return cfg, nil
}

// Validate checks the values and makes DocumentRoot absolute and clean.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if c.ReadTimeout.Duration < 0 || c.WriteTimeout.Duration < 0 {
		return errors.New("timeouts must not be negative")
	}

	if c.DocumentRoot == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDocumentRoot)
	}
	root, err := filepath.Abs(c.DocumentRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentRoot, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidDocumentRoot, root)
	}
	c.DocumentRoot = root

	if _, err := c.ListingLanguage(); err != nil {
		return err
	}
	return nil
}

// ListingLanguage parses Listing.Language. Empty means English.
func (c *Config) ListingLanguage() (language.Tag, error) {
	if c.Listing.Language == "" {
		return language.English, nil
	}
	tag, err := language.Parse(c.Listing.Language)
	if err != nil {
		return language.Und, fmt.Errorf("listing language %q: %w", c.Listing.Language, err)
	}
	return tag, nil
}

// Duration is a time.Duration written as a string ("30s", "1m") in files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
