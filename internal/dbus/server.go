package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// Registry is the part of the display registry served on the bus.
type Registry interface {
	Displays() []model.DisplaySummary
	Display(dpy model.DisplayHandle) (model.DisplaySummary, error)
	GetDisplayAttribute(dpy model.DisplayHandle, idx model.ConfigIndex, attr model.Attribute) (int32, error)
	GetActiveConfig(dpy model.DisplayHandle) (model.ConfigIndex, error)
	SetActiveConfig(dpy model.DisplayHandle, idx model.ConfigIndex) error
	SetPowerMode(dpy model.DisplayHandle, mode model.PowerMode) error
	SetVsyncEnabled(dpy model.DisplayHandle, v model.Vsync) error
}

// EventSource supplies the recent event history.
type EventSource interface {
	Recent(n int) []model.Event
}

// ComposerServer implements the io.github.jmylchreest.Composer1 interface.
type ComposerServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	registry Registry
	events   EventSource

	mu      sync.RWMutex
	running bool
}

// NewComposerServer creates a server for registry. events may be nil.
func NewComposerServer(registry Registry, events EventSource, logger *slog.Logger) *ComposerServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComposerServer{
		logger:   logger,
		registry: registry,
		events:   events,
	}
}

// Start connects to the named bus ("session" or "system") and exports the
// composer object.
func (s *ComposerServer) Start(bus string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := connect(bus, false)
	if err != nil {
		return fmt.Errorf("failed to connect to %s bus: %w", bus, err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(DBusPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: composerMethods(),
				Signals: composerSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus composer server started", "bus", bus, "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *ComposerServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared
	}

	s.logger.Info("D-Bus composer server stopped")
	return nil
}

// GetDisplays returns every display, ascending by handle.
// D-Bus method: GetDisplays() -> a(tsuuubuu)
func (s *ComposerServer) GetDisplays() ([]DisplayInfo, *dbus.Error) {
	s.logger.Debug("GetDisplays called")
	summaries := s.registry.Displays()
	out := make([]DisplayInfo, 0, len(summaries))
	for _, d := range summaries {
		out = append(out, NewDisplayInfo(d))
	}
	return out, nil
}

// GetDisplayConfigs returns the configs of one display, ascending by index.
// D-Bus method: GetDisplayConfigs(t) -> a(ubuuuii)
func (s *ComposerServer) GetDisplayConfigs(dpy uint64) ([]ConfigInfo, *dbus.Error) {
	s.logger.Debug("GetDisplayConfigs called", "dpy", dpy)
	d, err := s.registry.Display(model.DisplayHandle(dpy))
	if err != nil {
		return nil, toDBusError(err)
	}
	out := make([]ConfigInfo, 0, len(d.Configs))
	for _, c := range d.Configs {
		out = append(out, NewConfigInfo(c))
	}
	return out, nil
}

// GetDisplayAttribute returns one attribute of one config.
// D-Bus method: GetDisplayAttribute(tuu) -> i
func (s *ComposerServer) GetDisplayAttribute(dpy uint64, config uint32, attr uint32) (int32, *dbus.Error) {
	s.logger.Debug("GetDisplayAttribute called", "dpy", dpy, "config", config, "attr", attr)
	v, err := s.registry.GetDisplayAttribute(model.DisplayHandle(dpy), model.ConfigIndex(config), model.Attribute(attr))
	if err != nil {
		return 0, toDBusError(err)
	}
	return v, nil
}

// GetActiveConfig returns the active config index.
// D-Bus method: GetActiveConfig(t) -> u
func (s *ComposerServer) GetActiveConfig(dpy uint64) (uint32, *dbus.Error) {
	s.logger.Debug("GetActiveConfig called", "dpy", dpy)
	idx, err := s.registry.GetActiveConfig(model.DisplayHandle(dpy))
	if err != nil {
		return 0, toDBusError(err)
	}
	return uint32(idx), nil
}

// SetActiveConfig selects the active config.
// D-Bus method: SetActiveConfig(tu)
func (s *ComposerServer) SetActiveConfig(dpy uint64, config uint32) *dbus.Error {
	s.logger.Debug("SetActiveConfig called", "dpy", dpy, "config", config)
	return toDBusError(s.registry.SetActiveConfig(model.DisplayHandle(dpy), model.ConfigIndex(config)))
}

// SetPowerMode sets the power mode (0 off, 1 doze-suspend, 2 doze, 3 on).
// D-Bus method: SetPowerMode(tu)
func (s *ComposerServer) SetPowerMode(dpy uint64, mode uint32) *dbus.Error {
	s.logger.Debug("SetPowerMode called", "dpy", dpy, "mode", mode)
	return toDBusError(s.registry.SetPowerMode(model.DisplayHandle(dpy), model.PowerMode(mode)))
}

// SetVsyncEnabled turns vsync on (1) or off (2).
// D-Bus method: SetVsyncEnabled(tu)
func (s *ComposerServer) SetVsyncEnabled(dpy uint64, state uint32) *dbus.Error {
	s.logger.Debug("SetVsyncEnabled called", "dpy", dpy, "state", state)
	return toDBusError(s.registry.SetVsyncEnabled(model.DisplayHandle(dpy), model.Vsync(state)))
}

// GetRecentEvents returns the retained event history, oldest first.
// D-Bus method: GetRecentEvents() -> a(sstxx)
func (s *ComposerServer) GetRecentEvents() ([]EventInfo, *dbus.Error) {
	s.logger.Debug("GetRecentEvents called")
	if s.events == nil {
		return []EventInfo{}, nil
	}
	events := s.events.Recent(0)
	out := make([]EventInfo, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventInfo(e))
	}
	return out, nil
}

func composerMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetDisplays",
			Args: []introspect.Arg{
				{Name: "displays", Type: "a(tsuuubuu)", Direction: "out"},
			},
		},
		{
			Name: "GetDisplayConfigs",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "configs", Type: "a(ubuuuii)", Direction: "out"},
			},
		},
		{
			Name: "GetDisplayAttribute",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "config", Type: "u", Direction: "in"},
				{Name: "attribute", Type: "u", Direction: "in"},
				{Name: "value", Type: "i", Direction: "out"},
			},
		},
		{
			Name: "GetActiveConfig",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "config", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "SetActiveConfig",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "config", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "SetPowerMode",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "mode", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "SetVsyncEnabled",
			Args: []introspect.Arg{
				{Name: "display", Type: "t", Direction: "in"},
				{Name: "state", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "GetRecentEvents",
			Args: []introspect.Arg{
				{Name: "events", Type: "a(sstxx)", Direction: "out"},
			},
		},
	}
}

func composerSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalHotplug,
			Args: []introspect.Arg{
				{Name: "display", Type: "t"},
				{Name: "connection", Type: "u"},
			},
		},
		{
			Name: SignalVsync,
			Args: []introspect.Arg{
				{Name: "display", Type: "t"},
				{Name: "timestamp", Type: "x"},
			},
		},
		{
			Name: SignalRefresh,
			Args: []introspect.Arg{
				{Name: "display", Type: "t"},
			},
		},
	}
}
