package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// Registrar is the callback registration surface of the registry.
type Registrar interface {
	RegisterHotplugCallback(fn hwc.HotplugFunc) error
	RegisterVsyncCallback(fn hwc.VsyncFunc) error
	RegisterRefreshCallback(fn hwc.RefreshFunc) error
}

// Emitter publishes events outside the process. The D-Bus server is the
// production emitter.
type Emitter interface {
	EmitHotplug(dpy model.DisplayHandle, conn model.Connection) error
	EmitVsync(dpy model.DisplayHandle, timestampNs int64) error
	EmitRefresh(dpy model.DisplayHandle) error
}

// Bridge is the registry's client inside the daemon. Every delivered event
// is recorded and forwarded to the emitter.
//
// Vsync arrives at the refresh rate, so only one vsync per display per
// sample interval is written to the log. Every vsync is still emitted.
type Bridge struct {
	mu     sync.Mutex
	logger *slog.Logger

	log     *EventLog
	emitter Emitter

	vsyncSample time.Duration
	lastVsync   map[model.DisplayHandle]time.Time
	now         func() time.Time
}

// NewBridge creates a bridge recording into log. emitter may be nil.
func NewBridge(log *EventLog, emitter Emitter, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		logger:      logger,
		log:         log,
		emitter:     emitter,
		vsyncSample: time.Second,
		lastVsync:   make(map[model.DisplayHandle]time.Time),
		now:         time.Now,
	}
}

// SetEmitter replaces the emitter. nil stops forwarding.
func (b *Bridge) SetEmitter(emitter Emitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitter = emitter
}

// SetVsyncSampleInterval sets how often vsync events are logged per
// display. Zero logs every vsync.
func (b *Bridge) SetVsyncSampleInterval(interval time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vsyncSample = interval
}

// Attach registers the bridge's callbacks. Hotplug events queued since
// discovery are delivered before Attach returns.
func (b *Bridge) Attach(r Registrar) error {
	if err := r.RegisterVsyncCallback(b.onVsync); err != nil {
		return err
	}
	if err := r.RegisterRefreshCallback(b.onRefresh); err != nil {
		return err
	}
	return r.RegisterHotplugCallback(b.onHotplug)
}

func (b *Bridge) currentEmitter() Emitter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitter
}

func (b *Bridge) record(kind model.CallbackKind, dpy model.DisplayHandle, value int64) {
	if _, err := b.log.Add(kind, dpy, value); err != nil {
		b.logger.Warn("failed to record event", "kind", kind.String(), "dpy", uint64(dpy), "error", err)
	}
}

func (b *Bridge) onHotplug(dpy model.DisplayHandle, conn model.Connection) {
	b.logger.Info("display hotplug", "dpy", uint64(dpy), "connection", conn.String())
	b.record(model.CallbackHotplug, dpy, int64(conn))

	if e := b.currentEmitter(); e != nil {
		if err := e.EmitHotplug(dpy, conn); err != nil {
			b.logger.Warn("failed to emit hotplug", "dpy", uint64(dpy), "error", err)
		}
	}
}

func (b *Bridge) onVsync(dpy model.DisplayHandle, timestampNs int64) {
	if b.sampleVsync(dpy) {
		b.record(model.CallbackVsync, dpy, timestampNs)
	}

	if e := b.currentEmitter(); e != nil {
		if err := e.EmitVsync(dpy, timestampNs); err != nil {
			b.logger.Debug("failed to emit vsync", "dpy", uint64(dpy), "error", err)
		}
	}
}

func (b *Bridge) onRefresh(dpy model.DisplayHandle) {
	b.logger.Debug("display refresh requested", "dpy", uint64(dpy))
	b.record(model.CallbackRefresh, dpy, 0)

	if e := b.currentEmitter(); e != nil {
		if err := e.EmitRefresh(dpy); err != nil {
			b.logger.Warn("failed to emit refresh", "dpy", uint64(dpy), "error", err)
		}
	}
}

// sampleVsync reports whether this vsync should be logged.
func (b *Bridge) sampleVsync(dpy model.DisplayHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if last, ok := b.lastVsync[dpy]; ok && now.Sub(last) < b.vsyncSample {
		return false
	}
	b.lastVsync[dpy] = now
	return true
}
