package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "plain", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
	assert.Equal(t, "session", cfg.DBus.Bus)
	assert.False(t, cfg.Monitor.Vsync)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name:    "partial keeps defaults",
			content: "[output]\nformat = \"json\"\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "json", cfg.Output.Format)
				assert.True(t, cfg.Output.Color)
				assert.Equal(t, "session", cfg.DBus.Bus)
			},
		},
		{
			name:    "monitor and bus",
			content: "[dbus]\nbus = \"system\"\n[monitor]\nvsync = true\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "system", cfg.DBus.Bus)
				assert.True(t, cfg.Monitor.Vsync)
			},
		},
		{name: "invalid toml", content: "this is not valid toml [", wantErr: "config.toml"},
		{name: "unknown key", content: "[output]\nfromat = \"json\"\n", wantErr: "strict mode"},
		{name: "bad bus", content: "[dbus]\nbus = \"pci\"\n", wantErr: "invalid bus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := LoadConfig(path)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_Apply(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Apply(Overrides{}))
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, cfg.Apply(Overrides{Bus: "system", Format: "yaml", NoColor: true}))
	assert.Equal(t, "system", cfg.DBus.Bus)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)

	assert.Error(t, cfg.Apply(Overrides{Bus: "usb"}))
}

func TestConfig_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Output.Format = "yaml"
	cfg.Monitor.Vsync = true
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/fbhwc/config.toml", ConfigPath())
}
