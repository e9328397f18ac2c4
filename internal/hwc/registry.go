package hwc

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/fbhwc/internal/device"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// VsyncSource is the interrupt source behind vsync delivery. The registry
// turns it on and off per display; the source reports ticks through
// Registry.OnVsync.
type VsyncSource interface {
	SetVsyncEnabled(dpy model.DisplayHandle, period time.Duration, enabled bool) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDPI overrides the DPI reported for every config.
func WithDPI(dpiX, dpiY int32) Option {
	return func(r *Registry) {
		r.dpiX = dpiX
		r.dpiY = dpiY
	}
}

// WithVsyncSource sets the interrupt source toggled by SetVsyncEnabled.
func WithVsyncSource(src VsyncSource) Option {
	return func(r *Registry) {
		r.vsync = src
	}
}

// Registry owns every display opened on a device and is the single entry
// point for client calls and hardware events.
type Registry struct {
	mu sync.Mutex

	dev      device.Device
	displays map[model.DisplayHandle]*display
	byOutput map[device.OutputID]model.DisplayHandle

	nextDisplay model.DisplayHandle
	nextLayer   model.LayerHandle

	dispatcher *dispatcher
	vsync      VsyncSource

	dpiX   int32
	dpiY   int32
	logger *slog.Logger
}

// NewRegistry creates an empty registry for dev. Call DiscoverAndOpen to
// populate it.
func NewRegistry(dev device.Device, opts ...Option) *Registry {
	r := &Registry{
		dev:      dev,
		displays: make(map[model.DisplayHandle]*display),
		byOutput: make(map[device.OutputID]model.DisplayHandle),
		dpiX:     model.DefaultDPI,
		dpiY:     model.DefaultDPI,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dispatcher = newDispatcher(&r.mu, r.logger)
	return r
}

// SetVsyncSource replaces the vsync interrupt source. It is meant for
// wiring at startup, when the source needs the registry to exist first.
func (r *Registry) SetVsyncSource(src VsyncSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vsync = src
}

// DiscoverAndOpen opens every output the device enumerates, creates a
// connected, powered-on physical display for each and queues a connect
// hotplug event per display in handle order.
//
// Any failure closes whatever was opened and leaves the registry empty.
func (r *Registry) DiscoverAndOpen() error {
	r.mu.Lock()

	if len(r.displays) > 0 {
		r.mu.Unlock()
		return fmt.Errorf("displays already opened: %w", ErrBadParameter)
	}

	ids, err := r.dev.Enumerate()
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("failed to enumerate outputs", "error", err)
		return &DeviceError{Op: "enumerate", Output: -1, Err: err}
	}
	if len(ids) == 0 {
		r.mu.Unlock()
		r.logger.Error("failed to open any physical displays")
		return ErrNoDisplaysFound
	}

	opened := make([]*display, 0, len(ids))
	for _, id := range ids {
		out, err := r.dev.Open(id)
		if err != nil {
			r.abortOpen(opened)
			r.mu.Unlock()
			r.logger.Error("failed to open output", "output", int(id), "error", err)
			return &DeviceError{Op: "open", Output: id, Err: err}
		}

		d := newDisplay(r.allocDisplayLocked(), model.DisplayTypePhysical, r.dev, out, r.logger)
		opened = append(opened, d)

		if err := d.retrieveConfigs(r.dpiX, r.dpiY); err != nil {
			r.abortOpen(opened)
			r.mu.Unlock()
			r.logger.Error("failed to retrieve display configs", "output", int(id), "error", err)
			return err
		}
	}

	for _, d := range opened {
		r.displays[d.id] = d
		r.byOutput[d.output.ID] = d.id
		r.logger.Info("opened display", "dpy", uint64(d.id), "name", d.name, "output", d.output.String())
	}
	for _, d := range opened {
		r.dispatcher.postHotplugLocked(d.id, model.ConnectionConnected)
	}
	r.mu.Unlock()

	r.dispatcher.drain()
	return nil
}

func (r *Registry) abortOpen(opened []*display) {
	for _, d := range opened {
		if err := d.destroy(); err != nil {
			r.logger.Warn("failed to close output after aborted open", "dpy", uint64(d.id), "error", err)
		}
	}
}

func (r *Registry) allocDisplayLocked() model.DisplayHandle {
	id := r.nextDisplay
	r.nextDisplay++
	return id
}

func (r *Registry) allocLayerLocked() model.LayerHandle {
	id := r.nextLayer
	r.nextLayer++
	return id
}

// Reset destroys every display, drops all callbacks and queued events and
// restarts both handle sequences. It is for full teardown only.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, id := range r.sortedHandlesLocked() {
		if err := r.destroyDisplayLocked(r.displays[id]); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	r.displays = make(map[model.DisplayHandle]*display)
	r.byOutput = make(map[device.OutputID]model.DisplayHandle)
	r.nextDisplay = 0
	r.nextLayer = 0
	r.dispatcher.resetLocked()
	return firstErr
}

// Close tears the registry down. See Reset.
func (r *Registry) Close() error {
	return r.Reset()
}

func (r *Registry) destroyDisplayLocked(d *display) error {
	if d.vsync == model.VsyncEnable && r.vsync != nil {
		if err := r.vsync.SetVsyncEnabled(d.id, 0, false); err != nil {
			r.logger.Warn("failed to stop vsync source", "dpy", uint64(d.id), "error", err)
		}
	}
	return d.destroy()
}

func (r *Registry) sortedHandlesLocked() []model.DisplayHandle {
	ids := make([]model.DisplayHandle, 0, len(r.displays))
	for id := range r.displays {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// displayLocked resolves a display handle.
func (r *Registry) displayLocked(dpy model.DisplayHandle) (*display, error) {
	d, ok := r.displays[dpy]
	if !ok {
		r.logger.Warn("bad display handle", "dpy", uint64(dpy))
		return nil, fmt.Errorf("dpy %d: %w", dpy, ErrBadDisplay)
	}
	return d, nil
}

// withDisplay runs fn on a resolved display under the lock.
func (r *Registry) withDisplay(dpy model.DisplayHandle, fn func(d *display) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.displayLocked(dpy)
	if err != nil {
		return err
	}
	return fn(d)
}

// Displays returns a snapshot of every display in handle order.
func (r *Registry) Displays() []model.DisplaySummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.DisplaySummary, 0, len(r.displays))
	for _, id := range r.sortedHandlesLocked() {
		out = append(out, r.displays[id].summary())
	}
	return out
}

// Display returns a snapshot of one display.
func (r *Registry) Display(dpy model.DisplayHandle) (model.DisplaySummary, error) {
	var s model.DisplaySummary
	err := r.withDisplay(dpy, func(d *display) error {
		s = d.summary()
		return nil
	})
	return s, err
}

// DisplayForOutput maps a raw output to the display opened on it.
func (r *Registry) DisplayForOutput(id device.OutputID) (model.DisplayHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dpy, ok := r.byOutput[id]
	return dpy, ok
}

// GetDisplayAttribute returns one attribute of one config.
func (r *Registry) GetDisplayAttribute(dpy model.DisplayHandle, idx model.ConfigIndex, attr model.Attribute) (int32, error) {
	var v int32
	err := r.withDisplay(dpy, func(d *display) error {
		var err error
		v, err = d.getAttribute(idx, attr)
		return err
	})
	return v, err
}

// GetDisplayConfigs lists config indices using the two-call convention:
// with a nil out it returns the count, otherwise it fills at most len(out)
// entries and returns how many it wrote.
func (r *Registry) GetDisplayConfigs(dpy model.DisplayHandle, out []model.ConfigIndex) (int, error) {
	var n int
	err := r.withDisplay(dpy, func(d *display) error {
		n = d.getConfigs(out)
		return nil
	})
	return n, err
}

// GetActiveConfig returns the active config index.
func (r *Registry) GetActiveConfig(dpy model.DisplayHandle) (model.ConfigIndex, error) {
	var idx model.ConfigIndex
	err := r.withDisplay(dpy, func(d *display) error {
		var err error
		idx, err = d.getActiveConfig()
		return err
	})
	return idx, err
}

// SetActiveConfig selects a config by index.
func (r *Registry) SetActiveConfig(dpy model.DisplayHandle, idx model.ConfigIndex) error {
	return r.withDisplay(dpy, func(d *display) error {
		return d.setActiveConfig(idx)
	})
}

// GetDisplayName copies the display name using the two-call convention.
func (r *Registry) GetDisplayName(dpy model.DisplayHandle, out []byte) (int, error) {
	var n int
	err := r.withDisplay(dpy, func(d *display) error {
		n = d.getName(out)
		return nil
	})
	return n, err
}

// GetDisplayType reports whether a display is physical or virtual.
func (r *Registry) GetDisplayType(dpy model.DisplayHandle) (model.DisplayType, error) {
	r.mu.Lock()
	d, err := r.displayLocked(dpy)
	r.mu.Unlock()
	if err != nil {
		return model.DisplayTypeInvalid, err
	}
	// kind never changes after creation
	return d.kind, nil
}

// GetDozeSupport reports whether the display supports the doze modes.
func (r *Registry) GetDozeSupport(dpy model.DisplayHandle) (bool, error) {
	return false, r.withDisplay(dpy, func(*display) error { return nil })
}

// SetPowerMode turns a display on or off. Doze modes are unsupported.
func (r *Registry) SetPowerMode(dpy model.DisplayHandle, mode model.PowerMode) error {
	return r.withDisplay(dpy, func(d *display) error {
		return d.setPowerMode(mode)
	})
}

// SetVsyncEnabled turns vsync delivery for a display on or off. It is a
// no-op for virtual displays and when the state does not change.
func (r *Registry) SetVsyncEnabled(dpy model.DisplayHandle, v model.Vsync) error {
	return r.withDisplay(dpy, func(d *display) error {
		if v != model.VsyncEnable && v != model.VsyncDisable {
			return fmt.Errorf("dpy %d: invalid vsync state %d: %w", d.id, v, ErrBadParameter)
		}
		if d.kind == model.DisplayTypeVirtual || d.vsync == v {
			return nil
		}

		if r.vsync != nil {
			if err := r.vsync.SetVsyncEnabled(d.id, d.vsyncPeriod(), v == model.VsyncEnable); err != nil {
				return &DeviceError{Op: "vsync", Output: d.output.ID, Err: err}
			}
		}
		d.vsync = v
		d.logger.Debug("vsync toggled", "state", v.String())
		return nil
	})
}

// PresentDisplay uploads raw pixels to a display's output.
func (r *Registry) PresentDisplay(dpy model.DisplayHandle, buf []byte) error {
	return r.withDisplay(dpy, func(d *display) error {
		return d.present(buf)
	})
}

// CreateVirtualDisplay always fails: virtual displays are not supported.
func (r *Registry) CreateVirtualDisplay(width, height uint32) (model.DisplayHandle, error) {
	r.logger.Debug("virtual display requested", "width", width, "height", height)
	return 0, fmt.Errorf("virtual display %dx%d: %w", width, height, ErrNoResources)
}

// GetMaxVirtualDisplayCount returns how many virtual displays may exist.
func (r *Registry) GetMaxVirtualDisplayCount() uint32 {
	return 0
}

// RegisterCallback stores fn as the callback for kind, replacing any
// previous one. fn must be a HotplugFunc, VsyncFunc or RefreshFunc
// matching kind (or the equivalent plain func type); nil unregisters.
// Registering a hotplug callback delivers every queued hotplug event to it
// before any later event.
func (r *Registry) RegisterCallback(kind model.CallbackKind, fn any) error {
	r.mu.Lock()
	if err := r.dispatcher.registerLocked(kind, fn); err != nil {
		r.mu.Unlock()
		r.logger.Error("invalid callback registration", "kind", kind.String())
		return fmt.Errorf("callback %s: %w", kind, err)
	}
	r.mu.Unlock()

	r.dispatcher.drain()
	return nil
}

// RegisterHotplugCallback is RegisterCallback for hotplug.
func (r *Registry) RegisterHotplugCallback(fn HotplugFunc) error {
	return r.RegisterCallback(model.CallbackHotplug, fn)
}

// RegisterVsyncCallback is RegisterCallback for vsync.
func (r *Registry) RegisterVsyncCallback(fn VsyncFunc) error {
	return r.RegisterCallback(model.CallbackVsync, fn)
}

// RegisterRefreshCallback is RegisterCallback for refresh.
func (r *Registry) RegisterRefreshCallback(fn RefreshFunc) error {
	return r.RegisterCallback(model.CallbackRefresh, fn)
}

// PendingHotplugs returns how many hotplug events wait for a callback.
func (r *Registry) PendingHotplugs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatcher.pendingLocked()
}

// OnHotplug is called by hotplug sources. It updates the display's
// connection and forwards the event. Unknown handles and invalid states
// are logged and dropped.
func (r *Registry) OnHotplug(dpy model.DisplayHandle, conn model.Connection) {
	r.mu.Lock()
	d, ok := r.displays[dpy]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("hotplug for unknown display dropped", "dpy", uint64(dpy), "connection", conn.String())
		return
	}
	if err := d.setConnection(conn); err != nil {
		r.mu.Unlock()
		r.logger.Warn("hotplug dropped", "dpy", uint64(dpy), "error", err)
		return
	}
	r.dispatcher.postHotplugLocked(dpy, conn)
	r.mu.Unlock()

	r.dispatcher.drain()
}

// OnVsync is called by the vsync source. Events for unknown handles are
// dropped.
func (r *Registry) OnVsync(dpy model.DisplayHandle, timestampNs int64) {
	r.mu.Lock()
	if _, ok := r.displays[dpy]; !ok {
		r.mu.Unlock()
		r.logger.Debug("vsync for unknown display dropped", "dpy", uint64(dpy))
		return
	}
	r.dispatcher.postVsyncLocked(dpy, timestampNs)
	r.mu.Unlock()

	r.dispatcher.drain()
}

// OnRefresh asks the client to redraw a display. Events for unknown
// handles are dropped.
func (r *Registry) OnRefresh(dpy model.DisplayHandle) {
	r.mu.Lock()
	if _, ok := r.displays[dpy]; !ok {
		r.mu.Unlock()
		r.logger.Debug("refresh for unknown display dropped", "dpy", uint64(dpy))
		return
	}
	r.dispatcher.postRefreshLocked(dpy)
	r.mu.Unlock()

	r.dispatcher.drain()
}
