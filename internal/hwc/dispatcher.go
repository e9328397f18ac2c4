package hwc

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// HotplugFunc receives connect/disconnect transitions.
type HotplugFunc func(dpy model.DisplayHandle, conn model.Connection)

// VsyncFunc receives vertical-sync timestamps in nanoseconds.
type VsyncFunc func(dpy model.DisplayHandle, timestampNs int64)

// RefreshFunc receives requests to redraw a display.
type RefreshFunc func(dpy model.DisplayHandle)

type event struct {
	kind      model.CallbackKind
	dpy       model.DisplayHandle
	conn      model.Connection
	timestamp int64
}

// dispatcher holds the registered callbacks and the queues between event
// arrival and delivery. It shares the registry's mutex; methods ending in
// Locked must be called with it held.
//
// Hotplug events arriving without a hotplug callback wait in pending and
// move to the outbox, in order, when one is registered. Vsync and refresh
// events without a callback are dropped on arrival, as are those for a
// display whose hotplug is still pending, so a display is never seen
// before its connect. The outbox is drained
// by one goroutine at a time with the lock released around each call, so
// callbacks may call back into the registry.
type dispatcher struct {
	mu     *sync.Mutex
	logger *slog.Logger

	hotplug HotplugFunc
	vsync   VsyncFunc
	refresh RefreshFunc

	pending  []event
	outbox   []event
	draining bool
}

func newDispatcher(mu *sync.Mutex, logger *slog.Logger) *dispatcher {
	return &dispatcher{
		mu:     mu,
		logger: logger,
	}
}

// registerLocked replaces the callback for kind. fn must be the matching
// function type or nil; nil unregisters.
func (d *dispatcher) registerLocked(kind model.CallbackKind, fn any) error {
	switch kind {
	case model.CallbackHotplug:
		h, ok := asHotplug(fn)
		if !ok {
			return ErrBadParameter
		}
		d.hotplug = h
		if h == nil {
			d.unqueueHotplugLocked()
			return nil
		}
		if len(d.pending) > 0 {
			d.logger.Debug("flushing pending hotplug events", "count", len(d.pending))
			d.outbox = append(d.outbox, d.pending...)
			d.pending = nil
		}
	case model.CallbackVsync:
		v, ok := asVsync(fn)
		if !ok {
			return ErrBadParameter
		}
		d.vsync = v
	case model.CallbackRefresh:
		r, ok := asRefresh(fn)
		if !ok {
			return ErrBadParameter
		}
		d.refresh = r
	default:
		return ErrBadParameter
	}
	return nil
}

// unqueueHotplugLocked moves undelivered hotplug events back in front of
// pending after the hotplug callback was removed. Vsync and refresh events
// queued for those displays are dropped.
func (d *dispatcher) unqueueHotplugLocked() {
	var back []event
	for _, ev := range d.outbox {
		if ev.kind == model.CallbackHotplug {
			back = append(back, ev)
		}
	}
	if len(back) == 0 {
		return
	}
	d.pending = append(back, d.pending...)

	kept := d.outbox[:0]
	for _, ev := range d.outbox {
		if ev.kind != model.CallbackHotplug && !d.hotplugPendingLocked(ev.dpy) {
			kept = append(kept, ev)
		}
	}
	d.outbox = kept
}

func (d *dispatcher) postHotplugLocked(dpy model.DisplayHandle, conn model.Connection) {
	ev := event{kind: model.CallbackHotplug, dpy: dpy, conn: conn}
	if d.hotplug == nil {
		d.pending = append(d.pending, ev)
		return
	}
	d.outbox = append(d.outbox, ev)
}

// hotplugPendingLocked reports whether a hotplug for dpy waits for a
// callback.
func (d *dispatcher) hotplugPendingLocked(dpy model.DisplayHandle) bool {
	for _, ev := range d.pending {
		if ev.dpy == dpy {
			return true
		}
	}
	return false
}

func (d *dispatcher) postVsyncLocked(dpy model.DisplayHandle, timestampNs int64) {
	if d.vsync == nil || d.hotplugPendingLocked(dpy) {
		return
	}
	d.outbox = append(d.outbox, event{kind: model.CallbackVsync, dpy: dpy, timestamp: timestampNs})
}

func (d *dispatcher) postRefreshLocked(dpy model.DisplayHandle) {
	if d.refresh == nil || d.hotplugPendingLocked(dpy) {
		return
	}
	d.outbox = append(d.outbox, event{kind: model.CallbackRefresh, dpy: dpy})
}

// pendingLocked returns the number of hotplug events waiting for a callback.
func (d *dispatcher) pendingLocked() int {
	return len(d.pending)
}

// resetLocked drops every registration and queued event.
func (d *dispatcher) resetLocked() {
	d.hotplug = nil
	d.vsync = nil
	d.refresh = nil
	d.pending = nil
	d.outbox = nil
}

// drain delivers queued events in order. If another goroutine is already
// draining, it will deliver what was queued here and drain returns at once.
func (d *dispatcher) drain() {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true

	for len(d.outbox) > 0 {
		ev := d.outbox[0]
		d.outbox[0] = event{}
		d.outbox = d.outbox[1:]

		switch ev.kind {
		case model.CallbackHotplug:
			fn := d.hotplug
			d.mu.Unlock()
			if fn != nil {
				fn(ev.dpy, ev.conn)
			}
		case model.CallbackVsync:
			fn := d.vsync
			d.mu.Unlock()
			if fn != nil {
				fn(ev.dpy, ev.timestamp)
			}
		case model.CallbackRefresh:
			fn := d.refresh
			d.mu.Unlock()
			if fn != nil {
				fn(ev.dpy)
			}
		default:
			d.mu.Unlock()
		}
		d.mu.Lock()
	}

	d.outbox = nil
	d.draining = false
	d.mu.Unlock()
}

func asHotplug(fn any) (HotplugFunc, bool) {
	switch f := fn.(type) {
	case nil:
		return nil, true
	case HotplugFunc:
		return f, true
	case func(model.DisplayHandle, model.Connection):
		return f, true
	default:
		return nil, false
	}
}

func asVsync(fn any) (VsyncFunc, bool) {
	switch f := fn.(type) {
	case nil:
		return nil, true
	case VsyncFunc:
		return f, true
	case func(model.DisplayHandle, int64):
		return f, true
	default:
		return nil, false
	}
}

func asRefresh(fn any) (RefreshFunc, bool) {
	switch f := fn.(type) {
	case nil:
		return nil, true
	case RefreshFunc:
		return f, true
	case func(model.DisplayHandle):
		return f, true
	default:
		return nil, false
	}
}
