package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// Client calls the composer interface of a running daemon.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial opens a private connection to the named bus.
func Dial(bus string) (*Client, error) {
	conn, err := connect(bus, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s bus: %w", bus, err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(method string, args ...interface{}) *dbus.Call {
	return c.obj.Call(DBusInterface+"."+method, 0, args...)
}

// Displays returns every display with its configs.
func (c *Client) Displays() ([]model.DisplaySummary, error) {
	var infos []DisplayInfo
	if err := c.call("GetDisplays").Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}

	out := make([]model.DisplaySummary, 0, len(infos))
	for _, info := range infos {
		s := info.Summary()
		configs, err := c.Configs(s.ID)
		if err != nil {
			return nil, err
		}
		s.Configs = configs
		out = append(out, s)
	}
	return out, nil
}

// Configs returns the configs of one display.
func (c *Client) Configs(dpy model.DisplayHandle) ([]model.ConfigSummary, error) {
	var infos []ConfigInfo
	if err := c.call("GetDisplayConfigs", uint64(dpy)).Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}
	out := make([]model.ConfigSummary, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Summary())
	}
	return out, nil
}

// Attribute returns one attribute of one config.
func (c *Client) Attribute(dpy model.DisplayHandle, idx model.ConfigIndex, attr model.Attribute) (int32, error) {
	var v int32
	if err := c.call("GetDisplayAttribute", uint64(dpy), uint32(idx), uint32(attr)).Store(&v); err != nil {
		return 0, fromDBusError(err)
	}
	return v, nil
}

// ActiveConfig returns the active config index.
func (c *Client) ActiveConfig(dpy model.DisplayHandle) (model.ConfigIndex, error) {
	var idx uint32
	if err := c.call("GetActiveConfig", uint64(dpy)).Store(&idx); err != nil {
		return 0, fromDBusError(err)
	}
	return model.ConfigIndex(idx), nil
}

// SetActiveConfig selects the active config.
func (c *Client) SetActiveConfig(dpy model.DisplayHandle, idx model.ConfigIndex) error {
	return fromDBusError(c.call("SetActiveConfig", uint64(dpy), uint32(idx)).Err)
}

// SetPowerMode sets the power mode.
func (c *Client) SetPowerMode(dpy model.DisplayHandle, mode model.PowerMode) error {
	return fromDBusError(c.call("SetPowerMode", uint64(dpy), uint32(mode)).Err)
}

// SetVsyncEnabled turns vsync on or off.
func (c *Client) SetVsyncEnabled(dpy model.DisplayHandle, v model.Vsync) error {
	return fromDBusError(c.call("SetVsyncEnabled", uint64(dpy), uint32(v)).Err)
}

// RecentEvents returns the daemon's event history, oldest first.
func (c *Client) RecentEvents() ([]model.Event, error) {
	var infos []EventInfo
	if err := c.call("GetRecentEvents").Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}
	out := make([]model.Event, 0, len(infos))
	for _, info := range infos {
		ev, err := info.Event()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
