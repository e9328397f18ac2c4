package hwc

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/jmylchreest/fbhwc/internal/device"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// display is one output sink. All fields except id, kind and name are
// guarded by the owning registry's mutex.
type display struct {
	id   model.DisplayHandle
	kind model.DisplayType
	name string

	dev    device.Device
	output *device.Output // nil for virtual displays

	connection   model.Connection
	power        model.PowerMode
	vsync        model.Vsync
	configs      map[model.ConfigIndex]model.Config
	activeConfig model.ConfigIndex
	layers       map[model.LayerHandle]*model.Layer

	logger *slog.Logger
}

func newDisplay(id model.DisplayHandle, kind model.DisplayType, dev device.Device, out *device.Output, logger *slog.Logger) *display {
	return &display{
		id:         id,
		kind:       kind,
		name:       displayName(id, kind),
		dev:        dev,
		output:     out,
		connection: model.ConnectionConnected,
		power:      model.PowerModeOn,
		vsync:      model.VsyncDisable,
		configs:    make(map[model.ConfigIndex]model.Config),
		layers:     make(map[model.LayerHandle]*model.Layer),
		logger:     logger.With("dpy", uint64(id)),
	}
}

func displayName(id model.DisplayHandle, kind model.DisplayType) string {
	prefix := "dpy-phys-"
	if kind == model.DisplayTypeVirtual {
		prefix = "dpy-virt-"
	}
	return prefix + strconv.FormatUint(uint64(id), 10)
}

// retrieveConfigs builds the single config the output's current mode
// describes and makes it active. Multi-mode outputs are not modelled.
func (d *display) retrieveConfigs(dpiX, dpiY int32) error {
	if d.output == nil {
		return fmt.Errorf("dpy %d: no output to read configs from: %w", d.id, ErrBadConfig)
	}

	g := d.output.Geometry
	if g.Width == 0 || g.Height == 0 {
		return fmt.Errorf("dpy %d: output %s reports an empty mode: %w", d.id, d.output.Name, ErrBadConfig)
	}

	d.configs[0] = model.NewConfig(g.Width, g.Height, g.VsyncPeriodNs, dpiX, dpiY)
	d.activeConfig = 0

	d.logger.Debug("retrieved display config",
		"width", g.Width,
		"height", g.Height,
		"vsync_period_ns", g.VsyncPeriodNs,
	)
	return nil
}

func (d *display) setConnection(conn model.Connection) error {
	if conn != model.ConnectionConnected && conn != model.ConnectionDisconnected {
		return fmt.Errorf("dpy %d: invalid connection %d: %w", d.id, conn, ErrBadParameter)
	}
	d.connection = conn
	return nil
}

func (d *display) getAttribute(idx model.ConfigIndex, attr model.Attribute) (int32, error) {
	cfg, ok := d.configs[idx]
	if !ok {
		return 0, fmt.Errorf("dpy %d: config %d: %w", d.id, idx, ErrBadConfig)
	}
	v, ok := cfg.Attribute(attr)
	if !ok {
		return 0, fmt.Errorf("dpy %d: attribute %d: %w", d.id, attr, ErrBadParameter)
	}
	return v, nil
}

// configIndices returns the config indices in ascending order.
func (d *display) configIndices() []model.ConfigIndex {
	idxs := make([]model.ConfigIndex, 0, len(d.configs))
	for idx := range d.configs {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}

// getConfigs follows the two-call convention: a nil out returns the count,
// otherwise at most len(out) indices are written and the number written
// is returned.
func (d *display) getConfigs(out []model.ConfigIndex) int {
	if out == nil {
		return len(d.configs)
	}
	n := 0
	for _, idx := range d.configIndices() {
		if n >= len(out) {
			break
		}
		out[n] = idx
		n++
	}
	return n
}

func (d *display) getActiveConfig() (model.ConfigIndex, error) {
	if len(d.configs) == 0 {
		return 0, fmt.Errorf("dpy %d: no active config: %w", d.id, ErrBadConfig)
	}
	return d.activeConfig, nil
}

func (d *display) setActiveConfig(idx model.ConfigIndex) error {
	if _, ok := d.configs[idx]; !ok {
		return fmt.Errorf("dpy %d: config %d: %w", d.id, idx, ErrBadConfig)
	}
	d.activeConfig = idx
	return nil
}

// getName follows the same two-call convention as getConfigs. The name is
// not NUL terminated.
func (d *display) getName(out []byte) int {
	if out == nil {
		return len(d.name)
	}
	return copy(out, d.name)
}

func (d *display) setPowerMode(mode model.PowerMode) error {
	var blank bool
	switch mode {
	case model.PowerModeOn:
		blank = false
	case model.PowerModeOff:
		blank = true
	case model.PowerModeDoze, model.PowerModeDozeSuspend:
		d.logger.Warn("unsupported power mode", "mode", mode.String())
		return fmt.Errorf("dpy %d: power mode %s: %w", d.id, mode, ErrUnsupported)
	default:
		return fmt.Errorf("dpy %d: power mode %d: %w", d.id, mode, ErrBadParameter)
	}

	if d.output != nil {
		if err := d.dev.SetPower(d.output.Handle, blank); err != nil {
			return &DeviceError{Op: "blank", Output: d.output.ID, Err: err}
		}
	}
	d.power = mode
	return nil
}

// vsyncPeriod is the period of the active config, or 0 when unknown.
func (d *display) vsyncPeriod() time.Duration {
	cfg, ok := d.configs[d.activeConfig]
	if !ok {
		return 0
	}
	return time.Duration(cfg.VsyncPeriodNs)
}

func (d *display) present(buf []byte) error {
	if d.output == nil {
		return fmt.Errorf("dpy %d: present: %w", d.id, ErrUnsupported)
	}
	if err := d.dev.Present(d.output.Handle, buf); err != nil {
		if errors.Is(err, device.ErrNotSupported) {
			return fmt.Errorf("dpy %d: present: %w", d.id, ErrUnsupported)
		}
		return &DeviceError{Op: "present", Output: d.output.ID, Err: err}
	}
	return nil
}

// destroy releases the device resource. Layers go with the display.
func (d *display) destroy() error {
	d.layers = make(map[model.LayerHandle]*model.Layer)
	if d.output == nil {
		return nil
	}
	if err := d.dev.Close(d.output.Handle); err != nil {
		return &DeviceError{Op: "close", Output: d.output.ID, Err: err}
	}
	return nil
}

func (d *display) summary() model.DisplaySummary {
	s := model.DisplaySummary{
		ID:           d.id,
		Name:         d.name,
		Type:         d.kind,
		Connection:   d.connection,
		Power:        d.power,
		VsyncEnabled: d.vsync == model.VsyncEnable,
		ActiveConfig: d.activeConfig,
		Layers:       len(d.layers),
	}
	for _, idx := range d.configIndices() {
		s.Configs = append(s.Configs, model.ConfigSummary{
			Index:  idx,
			Active: idx == d.activeConfig,
			Config: d.configs[idx],
		})
	}
	s.Normalize()
	return s
}
