package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var errNotConnected = errors.New("not connected to D-Bus")

func (s *ComposerServer) emit(name string, values ...interface{}) error {
	s.mu.RLock()
	conn, running := s.conn, s.running
	s.mu.RUnlock()

	if conn == nil || !running {
		return errNotConnected
	}
	if err := conn.Emit(DBusPath, DBusInterface+"."+name, values...); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", name, err)
	}
	return nil
}

// EmitHotplug emits the Hotplug signal.
func (s *ComposerServer) EmitHotplug(dpy model.DisplayHandle, conn model.Connection) error {
	if err := s.emit(SignalHotplug, uint64(dpy), uint32(conn)); err != nil {
		return err
	}
	s.logger.Debug("emitted Hotplug signal", "dpy", uint64(dpy), "connection", conn.String())
	return nil
}

// EmitVsync emits the Vsync signal. It is not logged; it fires at the
// refresh rate.
func (s *ComposerServer) EmitVsync(dpy model.DisplayHandle, timestampNs int64) error {
	return s.emit(SignalVsync, uint64(dpy), timestampNs)
}

// EmitRefresh emits the Refresh signal.
func (s *ComposerServer) EmitRefresh(dpy model.DisplayHandle) error {
	if err := s.emit(SignalRefresh, uint64(dpy)); err != nil {
		return err
	}
	s.logger.Debug("emitted Refresh signal", "dpy", uint64(dpy))
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *ComposerServer) Connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
