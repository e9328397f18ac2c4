package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "2s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '2s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for fbhwcd.
// Loaded from ~/.config/fbhwc/fbhwcd.toml
type DaemonConfig struct {
	Device  DeviceConfig  `toml:"device"`
	Display DisplayConfig `toml:"display"`
	Vsync   VsyncConfig   `toml:"vsync"`
	Hotplug HotplugConfig `toml:"hotplug"`
	DBus    DBusConfig    `toml:"dbus"`
	Events  EventsConfig  `toml:"events"`
	Log     LogConfig     `toml:"log"`
	Sim     SimConfig     `toml:"sim"`
}

// DeviceConfig selects the output backend.
type DeviceConfig struct {
	Backend string `toml:"backend"` // "fbdev", "randr" or "sim"
	FBDir   string `toml:"fb_dir"`  // Empty = /dev/graphics, then /dev
}

// DisplayConfig overrides values the hardware does not report.
type DisplayConfig struct {
	DpiX int32 `toml:"dpi_x"`
	DpiY int32 `toml:"dpi_y"`
}

// VsyncConfig controls the software vsync source.
type VsyncConfig struct {
	Software      bool     `toml:"software"`       // Generate vsync from a timer
	DefaultPeriod Duration `toml:"default_period"` // Used when a mode reports no period
}

// HotplugConfig selects how output changes are detected.
type HotplugConfig struct {
	Watch        bool     `toml:"watch"` // Watch fb_dir for device nodes (fbdev only)
	Poll         bool     `toml:"poll"`  // Poll the backend's output list
	PollInterval Duration `toml:"poll_interval"`
}

// DBusConfig controls the D-Bus service.
type DBusConfig struct {
	Enabled bool   `toml:"enabled"`
	Bus     string `toml:"bus"` // "session" or "system"
}

// EventsConfig controls the event log.
type EventsConfig struct {
	HistoryLength int    `toml:"history_length"` // Max events kept for GetRecentEvents
	Journal       string `toml:"journal"`        // JSONL file the log survives restarts in; empty = memory only
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// SimConfig describes the outputs of the simulated backend.
type SimConfig struct {
	Outputs []SimOutput `toml:"outputs"`
}

// SimOutput is one simulated output.
type SimOutput struct {
	Name          string `toml:"name"`
	Width         uint32 `toml:"width"`
	Height        uint32 `toml:"height"`
	VsyncPeriodNs uint32 `toml:"vsync_period_ns"`
}

// Backend names an output backend.
type Backend string

const (
	BackendFBDev Backend = "fbdev"
	BackendRandR Backend = "randr"
	BackendSim   Backend = "sim"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendFBDev, BackendRandR, BackendSim}
}

// Bus names a message bus.
type Bus string

const (
	BusSession Bus = "session"
	BusSystem  Bus = "system"
)

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Device: DeviceConfig{
			Backend: string(BackendFBDev),
			FBDir:   "",
		},
		Display: DisplayConfig{
			DpiX: 324,
			DpiY: 324,
		},
		Vsync: VsyncConfig{
			Software:      true,
			DefaultPeriod: Duration(16666667 * time.Nanosecond),
		},
		Hotplug: HotplugConfig{
			Watch:        true,
			Poll:         false,
			PollInterval: Duration(2 * time.Second),
		},
		DBus: DBusConfig{
			Enabled: true,
			Bus:     string(BusSession),
		},
		Events: EventsConfig{
			HistoryLength: 256,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// DefaultSimOutput is simulated when no [[sim.outputs]] are configured.
var DefaultSimOutput = SimOutput{Name: "sim0", Width: 1920, Height: 1080, VsyncPeriodNs: 16666667}

// SimOutputs returns the configured simulated outputs, or DefaultSimOutput.
func (c *DaemonConfig) SimOutputs() []SimOutput {
	if len(c.Sim.Outputs) == 0 {
		return []SimOutput{DefaultSimOutput}
	}
	return c.Sim.Outputs
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "fbhwc", "fbhwcd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadDaemonConfigFrom(path)
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig writes the daemon configuration to path.
func SaveDaemonConfig(path string, config *DaemonConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	validBackend := false
	for _, b := range ValidBackends() {
		if c.Device.Backend == string(b) {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid backend %q, must be one of: %v", c.Device.Backend, ValidBackends())
	}

	if c.Display.DpiX <= 0 || c.Display.DpiY <= 0 {
		return fmt.Errorf("dpi must be positive, got %dx%d", c.Display.DpiX, c.Display.DpiY)
	}

	if c.Vsync.DefaultPeriod.Duration() <= 0 {
		return fmt.Errorf("vsync default_period must be positive, got %s", c.Vsync.DefaultPeriod.Duration())
	}

	if c.Hotplug.Poll && c.Hotplug.PollInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("hotplug poll_interval must be at least 10ms, got %s", c.Hotplug.PollInterval.Duration())
	}

	if c.DBus.Bus != string(BusSession) && c.DBus.Bus != string(BusSystem) {
		return fmt.Errorf("invalid bus %q, must be session or system", c.DBus.Bus)
	}

	if c.Events.HistoryLength < 0 || c.Events.HistoryLength > 100000 {
		return fmt.Errorf("history_length must be between 0 and 100000, got %d", c.Events.HistoryLength)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	for i, o := range c.Sim.Outputs {
		if o.Width == 0 || o.Height == 0 {
			return fmt.Errorf("sim output %d: width and height must be non-zero", i)
		}
	}

	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", s)
	}
}
