package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/model"
)

func TestMain(m *testing.M) {
	logger = slog.New(slog.DiscardHandler)
	os.Exit(m.Run())
}

func TestParseDisplay(t *testing.T) {
	dpy, err := parseDisplay("3")
	require.NoError(t, err)
	assert.Equal(t, model.DisplayHandle(3), dpy)

	_, err = parseDisplay("-1")
	assert.Error(t, err)
	_, err = parseDisplay("primary")
	assert.Error(t, err)
}

func TestReadHandles(t *testing.T) {
	in := "0\n\n1 | dpy-phys-1 | 1280x720@60.00 | on\n  2  \n"
	handles, err := readHandles(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, handles)
}

func TestParseDisplays(t *testing.T) {
	displays, err := parseDisplays([]string{"1", "0", "1"})
	require.NoError(t, err)
	assert.Equal(t, []model.DisplayHandle{1, 0}, displays)

	_, err = parseDisplays([]string{"1", "x"})
	assert.Error(t, err)
}

func TestFilterDisplays(t *testing.T) {
	displays := []model.DisplaySummary{{ID: 0}, {ID: 1}}
	assert.Equal(t, []model.DisplaySummary{{ID: 1}}, filterDisplays(displays, 1))
	assert.Empty(t, filterDisplays(displays, 4))
}

func TestQueryEvents(t *testing.T) {
	now := time.Now()
	events := []model.Event{
		{ID: "a", Kind: model.CallbackHotplug, Display: 0, Value: int64(model.ConnectionConnected), Time: now.Add(-3 * time.Hour)},
		{ID: "b", Kind: model.CallbackVsync, Display: 1, Time: now.Add(-2 * time.Hour)},
		{ID: "c", Kind: model.CallbackHotplug, Display: 1, Value: int64(model.ConnectionDisconnected), Time: now.Add(-time.Minute)},
		{ID: "d", Kind: model.CallbackRefresh, Display: 1, Time: now},
	}

	ids := func(evs []model.Event) []string {
		var out []string
		for _, e := range evs {
			out = append(out, e.ID)
		}
		return out
	}

	base := eventsOptions{display: -1, since: "0"}
	with := func(f func(o *eventsOptions)) eventsOptions {
		o := base
		f(&o)
		return o
	}

	tests := []struct {
		name string
		opts eventsOptions
		want []string
	}{
		{"all", base, []string{"a", "b", "c", "d"}},
		{"display", with(func(o *eventsOptions) { o.display = 1 }), []string{"b", "c", "d"}},
		{"kind", with(func(o *eventsOptions) { o.kind = "hotplug" }), []string{"a", "c"}},
		{"both", with(func(o *eventsOptions) { o.display = 1; o.kind = "hotplug" }), []string{"c"}},
		{"limit keeps newest", with(func(o *eventsOptions) { o.limit = 2 }), []string{"c", "d"}},
		{"since", with(func(o *eventsOptions) { o.since = "1h" }), []string{"c", "d"}},
		{"filter", with(func(o *eventsOptions) { o.filter = "detail=disconnected" }), []string{"c"}},
		{"filter then limit", with(func(o *eventsOptions) { o.filter = "kind=hotplug"; o.limit = 1 }), []string{"c"}},
		{"sort desc", with(func(o *eventsOptions) { o.sort = "time:desc" }), []string{"d", "c", "b", "a"}},
		{"sort display", with(func(o *eventsOptions) { o.sort = "display" }), []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queryEvents(events, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQueryEvents_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts eventsOptions
	}{
		{"since", eventsOptions{display: -1, since: "soon"}},
		{"kind", eventsOptions{display: -1, kind: "flip"}},
		{"filter", eventsOptions{display: -1, filter: "colour=red"}},
		{"sort", eventsOptions{display: -1, sort: "colour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queryEvents(nil, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestProbe_Sim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbhwcd.toml")
	content := `
[device]
backend = "sim"

[display]
dpi_x = 160
dpi_y = 160

[[sim.outputs]]
name = "left"
width = 1920
height = 1080
vsync_period_ns = 16666667

[[sim.outputs]]
name = "right"
width = 1280
height = 1024
vsync_period_ns = 13333333
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	dcfg, err := config.LoadDaemonConfigFrom(path)
	require.NoError(t, err)

	displays, err := probe(dcfg)
	require.NoError(t, err)
	require.Len(t, displays, 2)

	assert.Equal(t, "dpy-phys-0", displays[0].Name)
	require.Len(t, displays[1].Configs, 1)
	assert.Equal(t, uint32(1024), displays[1].Configs[0].Height)
	assert.Equal(t, int32(160), displays[1].Configs[0].DpiX)
}

func TestProbe_NoOutputs(t *testing.T) {
	dcfg := config.DefaultDaemonConfig()
	dcfg.Device.FBDir = t.TempDir()

	_, err := probe(dcfg)
	assert.Error(t, err)
}
