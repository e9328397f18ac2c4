package backend

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/device/fbdev"
	"github.com/jmylchreest/fbhwc/internal/device/sim"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOpen_Sim(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Device.Backend = string(config.BackendSim)
	cfg.Sim.Outputs = []config.SimOutput{
		{Name: "a", Width: 800, Height: 600, VsyncPeriodNs: 16666667},
		{Name: "b", Width: 640, Height: 480},
	}

	b, err := Open(cfg, discard())
	require.NoError(t, err)
	defer b.Release()

	assert.Equal(t, config.BackendSim, b.Kind)
	assert.IsType(t, &sim.Device{}, b.Device)

	ids, err := b.Device.Enumerate()
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	out, err := b.Device.Open(ids[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(800), out.Geometry.Width)
}

func TestOpen_SimDefaultOutput(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Device.Backend = string(config.BackendSim)

	b, err := Open(cfg, discard())
	require.NoError(t, err)

	ids, err := b.Device.Enumerate()
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestOpen_FBDev(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultDaemonConfig()
	cfg.Device.FBDir = dir

	b, err := Open(cfg, discard())
	require.NoError(t, err)
	defer b.Release()

	assert.Equal(t, config.BackendFBDev, b.Kind)
	assert.Equal(t, dir, b.Dir)
	assert.IsType(t, &fbdev.Device{}, b.Device)
}

func TestOpen_Unknown(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Device.Backend = "vga"

	_, err := Open(cfg, discard())
	assert.Error(t, err)
}
