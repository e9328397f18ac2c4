// Package config loads the TOML configuration of the fbhwc CLI and the
// fbhwcd daemon.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the fbhwc CLI configuration, read from
// $XDG_CONFIG_HOME/fbhwc/config.toml.
type Config struct {
	Output  OutputConfig  `toml:"output"`
	DBus    ClientConfig  `toml:"dbus"`
	Monitor MonitorConfig `toml:"monitor"`
}

// OutputConfig holds default output options.
type OutputConfig struct {
	Format string `toml:"format"` // plain, json, yaml, ids, dmenu
	Color  bool   `toml:"color"`
}

// ClientConfig selects the bus the daemon is reached on.
type ClientConfig struct {
	Bus string `toml:"bus"` // session, system
}

// MonitorConfig holds defaults for the monitor command.
type MonitorConfig struct {
	Vsync bool `toml:"vsync"` // Also print vsync signals
}

// Overrides are command-line values that win over the file. Zero values
// leave the file's setting alone.
type Overrides struct {
	Bus     string
	Format  string
	NoColor bool
}

// DefaultConfig returns the CLI defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Format: "plain", Color: true},
		DBus:   ClientConfig{Bus: string(BusSession)},
	}
}

// ConfigPath returns the CLI config file path, or "" when no config
// directory can be determined.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fbhwc", "config.toml")
}

// LoadConfig reads the CLI config at path (ConfigPath when empty) over the
// defaults. A missing file is not an error. Unknown keys are rejected so
// typos do not go unnoticed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Apply applies command-line overrides.
func (c *Config) Apply(o Overrides) error {
	if o.Bus != "" {
		c.DBus.Bus = o.Bus
	}
	if o.Format != "" {
		c.Output.Format = o.Format
	}
	if o.NoColor {
		c.Output.Color = false
	}
	return c.Validate()
}

// Validate checks the bus name. Output formats are checked by the
// formatter that consumes them.
func (c *Config) Validate() error {
	switch Bus(c.DBus.Bus) {
	case BusSession, BusSystem:
		return nil
	}
	return fmt.Errorf("invalid bus %q, must be session or system", c.DBus.Bus)
}

// Save writes the configuration to path (ConfigPath when empty), creating
// parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
