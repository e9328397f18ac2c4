package dbus

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/model"
)

func TestDisplayInfo_Summary(t *testing.T) {
	s := model.DisplaySummary{
		ID:           2,
		Name:         "dpy-phys-2",
		Type:         model.DisplayTypePhysical,
		Connection:   model.ConnectionDisconnected,
		Power:        model.PowerModeOn,
		VsyncEnabled: true,
		ActiveConfig: 0,
		Layers:       3,
	}
	s.Normalize()

	info := NewDisplayInfo(s)
	assert.Equal(t, uint64(2), info.ID)
	assert.Equal(t, uint32(model.ConnectionDisconnected), info.Connection)

	back := info.Summary()
	assert.Equal(t, s, back)
	assert.Equal(t, "disconnected", back.ConnName)
	assert.Equal(t, "on", back.PowerName)
}

func TestConfigInfo_Summary(t *testing.T) {
	c := model.ConfigSummary{
		Index:  1,
		Active: true,
		Config: model.NewConfig(1920, 1080, 16666667, 324, 324),
	}
	assert.Equal(t, c, NewConfigInfo(c).Summary())
}

func TestEventInfo_Event(t *testing.T) {
	at := time.Unix(1700000000, 123)
	e := model.Event{
		ID:       "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		Kind:     model.CallbackVsync,
		KindName: "vsync",
		Display:  1,
		Value:    987654321,
		Time:     at,
	}

	info := NewEventInfo(e)
	assert.Equal(t, "vsync", info.Kind)

	back, err := info.Event()
	require.NoError(t, err)
	assert.Equal(t, e.ID, back.ID)
	assert.Equal(t, e.Kind, back.Kind)
	assert.Equal(t, e.Value, back.Value)
	assert.True(t, at.Equal(back.Time))

	info.Kind = "bogus"
	_, err = info.Event()
	assert.Error(t, err)
}

func TestToDBusError(t *testing.T) {
	assert.Nil(t, toDBusError(nil))

	tests := []struct {
		err  error
		name string
	}{
		{fmt.Errorf("dpy 9: %w", hwc.ErrBadDisplay), ErrorPrefix + "BadDisplay"},
		{hwc.ErrBadConfig, ErrorPrefix + "BadConfig"},
		{hwc.ErrUnsupported, ErrorPrefix + "Unsupported"},
		{errors.New("ioctl failed"), ErrorPrefix + "DeviceIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := toDBusError(tt.err)
			require.NotNil(t, derr)
			assert.Equal(t, tt.name, derr.Name)
			assert.Equal(t, []interface{}{tt.err.Error()}, derr.Body)
		})
	}
}

func TestFromDBusError(t *testing.T) {
	assert.NoError(t, fromDBusError(nil))

	t.Run("pointer", func(t *testing.T) {
		err := fromDBusError(toDBusError(fmt.Errorf("dpy 9: %w", hwc.ErrBadDisplay)))
		assert.ErrorIs(t, err, hwc.ErrBadDisplay)
		assert.Equal(t, "dpy 9: bad display", err.Error())

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, hwc.CodeBadDisplay, remote.Code)
	})

	t.Run("value", func(t *testing.T) {
		err := fromDBusError(dbus.Error{Name: ErrorPrefix + "BadConfig"})
		assert.ErrorIs(t, err, hwc.ErrBadConfig)
		assert.Equal(t, "BadConfig", err.Error())
	})

	t.Run("device io has no sentinel", func(t *testing.T) {
		err := fromDBusError(toDBusError(errors.New("ioctl failed")))
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, hwc.CodeDeviceIO, remote.Code)
		assert.Equal(t, hwc.CodeDeviceIO, hwc.CodeOf(err))
	})

	t.Run("foreign error name", func(t *testing.T) {
		in := dbus.NewError("org.freedesktop.DBus.Error.ServiceUnknown", []interface{}{"no daemon"})
		assert.Same(t, in, fromDBusError(in))
	})

	t.Run("plain error", func(t *testing.T) {
		in := errors.New("boom")
		assert.Equal(t, in, fromDBusError(in))
	})
}

func TestConnectUnknownBus(t *testing.T) {
	_, err := connect("nowhere", false)
	assert.Error(t, err)
}
