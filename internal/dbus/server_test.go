package dbus

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/device/sim"
	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/model"
)

type fakeEvents struct {
	events []model.Event
}

func (f *fakeEvents) Recent(n int) []model.Event {
	return f.events
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestServer(t *testing.T, events EventSource) (*ComposerServer, *sim.Device) {
	t.Helper()
	dev := sim.New(
		sim.OutputSpec{Name: "fb0", Width: 1920, Height: 1080, VsyncPeriodNs: 16666667},
		sim.OutputSpec{Name: "fb1", Width: 1280, Height: 720, VsyncPeriodNs: 16666667},
	)
	r := hwc.NewRegistry(dev, hwc.WithLogger(discard()))
	require.NoError(t, r.DiscoverAndOpen())
	t.Cleanup(func() { _ = r.Close() })
	return NewComposerServer(r, events, discard()), dev
}

func TestComposerServer_GetDisplays(t *testing.T) {
	s, _ := newTestServer(t, nil)

	displays, derr := s.GetDisplays()
	require.Nil(t, derr)
	require.Len(t, displays, 2)
	assert.Equal(t, uint64(0), displays[0].ID)
	assert.Equal(t, "dpy-phys-0", displays[0].Name)
	assert.Equal(t, uint32(model.ConnectionConnected), displays[1].Connection)
}

func TestComposerServer_GetDisplayConfigs(t *testing.T) {
	s, _ := newTestServer(t, nil)

	configs, derr := s.GetDisplayConfigs(1)
	require.Nil(t, derr)
	require.Len(t, configs, 1)
	assert.Equal(t, uint32(1280), configs[0].Width)
	assert.True(t, configs[0].Active)
	assert.Equal(t, int32(model.DefaultDPI), configs[0].DpiX)

	_, derr = s.GetDisplayConfigs(7)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"BadDisplay", derr.Name)
}

func TestComposerServer_Attributes(t *testing.T) {
	s, _ := newTestServer(t, nil)

	v, derr := s.GetDisplayAttribute(0, 0, uint32(model.AttributeHeight))
	require.Nil(t, derr)
	assert.Equal(t, int32(1080), v)

	_, derr = s.GetDisplayAttribute(0, 4, uint32(model.AttributeHeight))
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"BadConfig", derr.Name)

	idx, derr := s.GetActiveConfig(0)
	require.Nil(t, derr)
	assert.Equal(t, uint32(0), idx)

	assert.Nil(t, s.SetActiveConfig(0, 0))
	derr = s.SetActiveConfig(0, 5)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"BadConfig", derr.Name)
}

func TestComposerServer_SetPowerMode(t *testing.T) {
	s, dev := newTestServer(t, nil)

	require.Nil(t, s.SetPowerMode(1, uint32(model.PowerModeOff)))
	assert.True(t, dev.Blanked(1))

	require.Nil(t, s.SetPowerMode(1, uint32(model.PowerModeOn)))
	assert.False(t, dev.Blanked(1))

	derr := s.SetPowerMode(1, uint32(model.PowerModeDoze))
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"Unsupported", derr.Name)

	derr = s.SetPowerMode(1, 42)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"BadParameter", derr.Name)
}

func TestComposerServer_SetVsyncEnabled(t *testing.T) {
	s, _ := newTestServer(t, nil)

	require.Nil(t, s.SetVsyncEnabled(0, uint32(model.VsyncEnable)))
	displays, _ := s.GetDisplays()
	assert.True(t, displays[0].VsyncEnabled)

	derr := s.SetVsyncEnabled(0, uint32(model.VsyncInvalid))
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPrefix+"BadParameter", derr.Name)
}

func TestComposerServer_GetRecentEvents(t *testing.T) {
	s, _ := newTestServer(t, nil)
	events, derr := s.GetRecentEvents()
	require.Nil(t, derr)
	assert.Empty(t, events)

	src := &fakeEvents{events: []model.Event{
		{ID: "a", Kind: model.CallbackHotplug, Display: 0, Value: int64(model.ConnectionConnected)},
		{ID: "b", Kind: model.CallbackRefresh, Display: 1},
	}}
	s, _ = newTestServer(t, src)
	events, derr = s.GetRecentEvents()
	require.Nil(t, derr)
	require.Len(t, events, 2)
	assert.Equal(t, "hotplug", events[0].Kind)
	assert.Equal(t, uint64(1), events[1].Display)
}

func TestComposerServer_EmitWithoutConnection(t *testing.T) {
	s, _ := newTestServer(t, nil)

	assert.ErrorIs(t, s.EmitHotplug(0, model.ConnectionConnected), errNotConnected)
	assert.ErrorIs(t, s.EmitVsync(0, 1), errNotConnected)
	assert.ErrorIs(t, s.EmitRefresh(0), errNotConnected)
	assert.NoError(t, s.Stop())
	assert.Nil(t, s.Connection())
}

func TestIntrospection(t *testing.T) {
	var names []string
	for _, m := range composerMethods() {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"GetDisplays", "GetDisplayConfigs", "GetDisplayAttribute", "GetActiveConfig",
		"SetActiveConfig", "SetPowerMode", "SetVsyncEnabled", "GetRecentEvents",
	}, names)

	signals := composerSignals()
	require.Len(t, signals, 3)
	assert.Equal(t, "x", signals[1].Args[1].Type)
}
