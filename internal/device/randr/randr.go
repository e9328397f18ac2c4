// Package randr exposes the outputs of an X11 server through the RandR
// extension so fbhwc can run on a development desktop. Frames cannot be
// presented; power maps to DPMS.
package randr

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/dpms"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/jmylchreest/fbhwc/internal/device"
)

// Device is an X11 screen. Output ids are indices into the screen's
// RandR output list.
type Device struct {
	mu     sync.Mutex
	xu     *xgbutil.XUtil
	root   xproto.Window
	open   map[device.Handle]device.OutputID
	logger *slog.Logger
}

// New connects to the X server named by $DISPLAY.
func New(logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	if err := dpms.Init(xu.Conn()); err != nil {
		// power control degrades to unsupported
		logger.Warn("dpms init failed", "error", err)
	}

	return &Device{
		xu:     xu,
		root:   xu.RootWin(),
		open:   make(map[device.Handle]device.OutputID),
		logger: logger,
	}, nil
}

// Disconnect closes the X connection.
func (d *Device) Disconnect() {
	d.xu.Conn().Close()
}

type outputState struct {
	output randr.Output
	name   string
	mode   *randr.ModeInfo
	active bool
}

func (d *Device) outputs() ([]outputState, error) {
	conn := d.xu.Conn()

	res, err := randr.GetScreenResources(conn, d.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[uint32]*randr.ModeInfo, len(res.Modes))
	for i := range res.Modes {
		modes[res.Modes[i].Id] = &res.Modes[i]
	}

	states := make([]outputState, len(res.Outputs))
	for i, out := range res.Outputs {
		states[i].output = out

		info, err := randr.GetOutputInfo(conn, out, res.ConfigTimestamp).Reply()
		if err != nil {
			d.logger.Debug("failed to query output", "output", i, "error", err)
			continue
		}
		states[i].name = string(info.Name)

		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil || crtc.Width == 0 || crtc.Height == 0 {
			continue
		}
		states[i].mode = modes[uint32(crtc.Mode)]
		states[i].active = states[i].mode != nil
	}
	return states, nil
}

// Enumerate implements device.Device. Only connected outputs driving a
// CRTC are listed.
func (d *Device) Enumerate() ([]device.OutputID, error) {
	states, err := d.outputs()
	if err != nil {
		return nil, err
	}

	var ids []device.OutputID
	for i, s := range states {
		if s.active {
			ids = append(ids, device.OutputID(i))
		}
	}
	return ids, nil
}

// Open implements device.Device.
func (d *Device) Open(id device.OutputID) (*device.Output, error) {
	states, err := d.outputs()
	if err != nil {
		return nil, err
	}
	if int(id) < 0 || int(id) >= len(states) || !states[id].active {
		return nil, fmt.Errorf("randr output %d: %w", id, device.ErrNotFound)
	}

	s := states[id]
	h := device.Handle(s.output)

	d.mu.Lock()
	d.open[h] = id
	d.mu.Unlock()

	return &device.Output{
		ID:     id,
		Handle: h,
		Name:   s.name,
		Geometry: device.Geometry{
			Width:         uint32(s.mode.Width),
			Height:        uint32(s.mode.Height),
			VsyncPeriodNs: refreshPeriodNs(*s.mode),
		},
	}, nil
}

func (d *Device) check(h device.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.open[h]; !ok {
		return fmt.Errorf("handle %d: %w", h, device.ErrUnknownHandle)
	}
	return nil
}

// SetPower implements device.Device. DPMS acts on the whole screen, so
// blanking one output blanks them all.
func (d *Device) SetPower(h device.Handle, blank bool) error {
	if err := d.check(h); err != nil {
		return err
	}

	conn := d.xu.Conn()
	if err := dpms.EnableChecked(conn).Check(); err != nil {
		return fmt.Errorf("dpms enable: %w", err)
	}

	level := uint16(dpms.DPMSModeOn)
	if blank {
		level = uint16(dpms.DPMSModeOff)
	}
	if err := dpms.ForceLevelChecked(conn, level).Check(); err != nil {
		return fmt.Errorf("dpms force level: %w", err)
	}
	return nil
}

// Present implements device.Device. The X server owns the screen.
func (d *Device) Present(h device.Handle, _ []byte) error {
	if err := d.check(h); err != nil {
		return err
	}
	return device.ErrNotSupported
}

// Close implements device.Device.
func (d *Device) Close(h device.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.open[h]; !ok {
		return fmt.Errorf("handle %d: %w", h, device.ErrUnknownHandle)
	}
	delete(d.open, h)
	return nil
}

// refreshPeriodNs is the frame period of a mode: total pixels per frame
// over the dot clock.
func refreshPeriodNs(m randr.ModeInfo) uint32 {
	if m.DotClock == 0 || m.Htotal == 0 || m.Vtotal == 0 {
		return 16666667
	}
	pixels := uint64(m.Htotal) * uint64(m.Vtotal)
	return uint32(pixels * 1e9 / uint64(m.DotClock))
}
