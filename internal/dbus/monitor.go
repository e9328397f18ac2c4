package dbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// EventHandler receives events observed on the bus.
type EventHandler func(ev model.Event)

// Monitor subscribes to the composer's signals without owning any name.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onEvent EventHandler
	now     func() time.Time
	done    chan struct{}
}

// NewMonitor creates a new signal monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// SetEventHandler sets the callback for received signals.
func (m *Monitor) SetEventHandler(handler EventHandler) {
	m.onEvent = handler
}

// Start subscribes to the composer's signals on the named bus.
func (m *Monitor) Start(bus string) error {
	conn, err := connect(bus, true)
	if err != nil {
		return fmt.Errorf("failed to connect to %s bus: %w", bus, err)
	}
	m.conn = conn

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 100)
	conn.Signal(ch)

	m.logger.Info("started D-Bus signal monitor", "bus", bus, "interface", DBusInterface)

	go m.processSignals(ch)
	return nil
}

// Done is closed when the connection goes away.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) processSignals(ch <-chan *dbus.Signal) {
	defer close(m.done)

	for sig := range ch {
		ev, ok := m.parseSignal(sig)
		if !ok {
			continue
		}
		if m.onEvent != nil {
			m.onEvent(ev)
		}
	}
}

// parseSignal converts a composer signal into an event. Events seen on
// the bus have no id.
func (m *Monitor) parseSignal(sig *dbus.Signal) (model.Event, bool) {
	if sig == nil || sig.Path != DBusPath || len(sig.Body) == 0 {
		return model.Event{}, false
	}

	dpy, ok := sig.Body[0].(uint64)
	if !ok {
		m.logger.Warn("invalid display type in signal", "name", sig.Name)
		return model.Event{}, false
	}

	ev := model.Event{
		Display: model.DisplayHandle(dpy),
		Time:    m.now(),
	}

	switch sig.Name {
	case DBusInterface + "." + SignalHotplug:
		conn, ok := bodyAt[uint32](sig, 1)
		if !ok {
			m.logger.Warn("malformed Hotplug signal", "body_len", len(sig.Body))
			return model.Event{}, false
		}
		ev.Kind, ev.Value = model.CallbackHotplug, int64(conn)
	case DBusInterface + "." + SignalVsync:
		ts, ok := bodyAt[int64](sig, 1)
		if !ok {
			m.logger.Warn("malformed Vsync signal", "body_len", len(sig.Body))
			return model.Event{}, false
		}
		ev.Kind, ev.Value = model.CallbackVsync, ts
	case DBusInterface + "." + SignalRefresh:
		ev.Kind = model.CallbackRefresh
	default:
		return model.Event{}, false
	}

	ev.KindName = ev.Kind.String()
	return ev, true
}

func bodyAt[T any](sig *dbus.Signal, i int) (T, bool) {
	var zero T
	if len(sig.Body) <= i {
		return zero, false
	}
	v, ok := sig.Body[i].(T)
	return v, ok
}

// Stop closes the monitor's connection.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
