// Package backend builds the output device selected by the daemon
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/device"
	"github.com/jmylchreest/fbhwc/internal/device/fbdev"
	"github.com/jmylchreest/fbhwc/internal/device/randr"
	"github.com/jmylchreest/fbhwc/internal/device/sim"
)

// Backend is an opened output device and how to release it.
type Backend struct {
	Device device.Device
	Kind   config.Backend

	// Dir is the device node directory, for backends that have one.
	Dir string

	release func()
}

// Release frees backend resources not owned by the registry.
func (b *Backend) Release() {
	if b.release != nil {
		b.release()
	}
}

// Open builds the backend named by cfg.Device.Backend.
func Open(cfg *config.DaemonConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kind := config.Backend(cfg.Device.Backend)
	switch kind {
	case config.BackendFBDev:
		dev := fbdev.New(cfg.Device.FBDir, logger.With("backend", "fbdev"))
		logger.Debug("using framebuffer backend", "dir", dev.Dir())
		return &Backend{Device: dev, Kind: kind, Dir: dev.Dir()}, nil

	case config.BackendRandR:
		dev, err := randr.New(logger.With("backend", "randr"))
		if err != nil {
			return nil, err
		}
		return &Backend{Device: dev, Kind: kind, release: dev.Disconnect}, nil

	case config.BackendSim:
		outputs := cfg.SimOutputs()
		specs := make([]sim.OutputSpec, 0, len(outputs))
		for _, o := range outputs {
			specs = append(specs, sim.OutputSpec{
				Name:          o.Name,
				Width:         o.Width,
				Height:        o.Height,
				VsyncPeriodNs: o.VsyncPeriodNs,
			})
		}
		logger.Debug("using simulated backend", "outputs", len(specs))
		return &Backend{Device: sim.New(specs...), Kind: kind}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Device.Backend)
	}
}
