package dbus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/model"
)

const (
	// DBusInterface is the composer interface name.
	DBusInterface = "io.github.jmylchreest.Composer1"
	// DBusPath is the composer object path.
	DBusPath = dbus.ObjectPath("/io/github/jmylchreest/Composer1")
	// DBusBusName is the bus name to claim.
	DBusBusName = DBusInterface
	// ErrorPrefix prefixes every error name returned by the composer.
	ErrorPrefix = DBusInterface + ".Error."
)

// Signal names.
const (
	SignalHotplug = "Hotplug"
	SignalVsync   = "Vsync"
	SignalRefresh = "Refresh"
)

// DisplayInfo is the wire form of a display snapshot.
// D-Bus signature: (tsuuubuu)
type DisplayInfo struct {
	ID           uint64
	Name         string
	Type         uint32
	Connection   uint32
	Power        uint32
	VsyncEnabled bool
	ActiveConfig uint32
	Layers       uint32
}

// ConfigInfo is the wire form of one display config.
// D-Bus signature: (ubuuuii)
type ConfigInfo struct {
	Index         uint32
	Active        bool
	Width         uint32
	Height        uint32
	VsyncPeriodNs uint32
	DpiX          int32
	DpiY          int32
}

// EventInfo is the wire form of a logged event.
// D-Bus signature: (sstxx)
type EventInfo struct {
	ID       string
	Kind     string
	Display  uint64
	Value    int64
	UnixNano int64
}

// NewDisplayInfo converts a display snapshot. Configs travel separately.
func NewDisplayInfo(s model.DisplaySummary) DisplayInfo {
	return DisplayInfo{
		ID:           uint64(s.ID),
		Name:         s.Name,
		Type:         uint32(s.Type),
		Connection:   uint32(s.Connection),
		Power:        uint32(s.Power),
		VsyncEnabled: s.VsyncEnabled,
		ActiveConfig: uint32(s.ActiveConfig),
		Layers:       uint32(s.Layers),
	}
}

// Summary converts back to a display snapshot without configs.
func (d DisplayInfo) Summary() model.DisplaySummary {
	s := model.DisplaySummary{
		ID:           model.DisplayHandle(d.ID),
		Name:         d.Name,
		Type:         model.DisplayType(d.Type),
		Connection:   model.Connection(d.Connection),
		Power:        model.PowerMode(d.Power),
		VsyncEnabled: d.VsyncEnabled,
		ActiveConfig: model.ConfigIndex(d.ActiveConfig),
		Layers:       int(d.Layers),
	}
	s.Normalize()
	return s
}

// NewConfigInfo converts a config summary.
func NewConfigInfo(c model.ConfigSummary) ConfigInfo {
	return ConfigInfo{
		Index:         uint32(c.Index),
		Active:        c.Active,
		Width:         c.Width,
		Height:        c.Height,
		VsyncPeriodNs: c.VsyncPeriodNs,
		DpiX:          c.DpiX,
		DpiY:          c.DpiY,
	}
}

// Summary converts back to a config summary.
func (c ConfigInfo) Summary() model.ConfigSummary {
	return model.ConfigSummary{
		Index:  model.ConfigIndex(c.Index),
		Active: c.Active,
		Config: model.NewConfig(c.Width, c.Height, c.VsyncPeriodNs, c.DpiX, c.DpiY),
	}
}

// NewEventInfo converts a logged event.
func NewEventInfo(e model.Event) EventInfo {
	return EventInfo{
		ID:       e.ID,
		Kind:     e.Kind.String(),
		Display:  uint64(e.Display),
		Value:    e.Value,
		UnixNano: e.Time.UnixNano(),
	}
}

// Event converts back to a logged event.
func (e EventInfo) Event() (model.Event, error) {
	kind, err := model.ParseCallbackKind(e.Kind)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:       e.ID,
		Kind:     kind,
		KindName: kind.String(),
		Display:  model.DisplayHandle(e.Display),
		Value:    e.Value,
		Time:     time.Unix(0, e.UnixNano),
	}, nil
}

// toDBusError maps a registry error to a named D-Bus error.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.NewError(ErrorPrefix+hwc.CodeOf(err).String(), []interface{}{err.Error()})
}

// RemoteError is an error returned by the composer over the bus.
type RemoteError struct {
	Code    hwc.Code
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

// Unwrap returns the registry sentinel for the code, so errors.Is works
// across the bus.
func (e *RemoteError) Unwrap() error {
	return e.Code.Sentinel()
}

// fromDBusError converts a composer error reply back into a RemoteError.
// Errors with other names are returned unchanged.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}

	var name string
	var body []interface{}
	var value dbus.Error
	var ptr *dbus.Error
	switch {
	case errors.As(err, &ptr):
		name, body = ptr.Name, ptr.Body
	case errors.As(err, &value):
		name, body = value.Name, value.Body
	default:
		return err
	}

	codeName, ok := strings.CutPrefix(name, ErrorPrefix)
	if !ok {
		return err
	}
	code, ok := hwc.ParseCode(codeName)
	if !ok {
		return err
	}

	remote := &RemoteError{Code: code}
	if len(body) > 0 {
		if msg, ok := body[0].(string); ok {
			remote.Message = msg
		}
	}
	return remote
}

// connect returns a connection to the named bus. Private connections are
// owned by the caller and must be closed.
func connect(bus string, private bool) (*dbus.Conn, error) {
	switch config.Bus(bus) {
	case config.BusSession, "":
		if private {
			return dbus.ConnectSessionBus()
		}
		return dbus.SessionBus()
	case config.BusSystem:
		if private {
			return dbus.ConnectSystemBus()
		}
		return dbus.SystemBus()
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
}
