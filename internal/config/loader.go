package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type format int

const (
	formatTOML format = iota
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads path on top of the defaults, so a file only needs the keys it
// changes. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	fmtKind, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(fmtKind, data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML or YAML data on top of the defaults.
func Parse(data []byte, name string) (*Config, error) {
	fmtKind, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := decode(fmtKind, data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return cfg, nil
}

// decode overlays data onto cfg. Keybindings in the file replace the
// defaults instead of being appended to them.
func decode(f format, data []byte, cfg *Config) error {
	defaults := cfg.Keybindings
	cfg.Keybindings = nil

	var err error
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if cfg.Keybindings == nil {
		cfg.Keybindings = defaults
	}
	return err
}

// Marshal encodes cfg in the format implied by name.
func (c *Config) Marshal(name string) ([]byte, error) {
	fmtKind, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	if fmtKind == formatYAML {
		return yaml.Marshal(c)
	}
	return toml.Marshal(c)
}

// Save writes the configuration, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Marshal(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	log.Printf("[config] saved %s", path)
	return nil
}
