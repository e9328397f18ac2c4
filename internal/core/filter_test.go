package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/model"
)

func testEvents(now time.Time) []model.Event {
	return []model.Event{
		{ID: "01A", Kind: model.CallbackHotplug, Display: 0, Value: int64(model.ConnectionConnected), Time: now.Add(-2 * time.Hour)},
		{ID: "01B", Kind: model.CallbackHotplug, Display: 1, Value: int64(model.ConnectionDisconnected), Time: now.Add(-90 * time.Minute)},
		{ID: "01C", Kind: model.CallbackVsync, Display: 0, Value: 1000, Time: now.Add(-30 * time.Minute)},
		{ID: "01D", Kind: model.CallbackRefresh, Display: 1, Time: now.Add(-5 * time.Minute)},
		{ID: "01E", Kind: model.CallbackVsync, Display: 0, Value: 2000, Time: now.Add(-time.Minute)},
	}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestFilter_Empty(t *testing.T) {
	result := Filter(nil, FilterOptions{})
	assert.Len(t, result, 0)
}

func TestFilter_NoFilters(t *testing.T) {
	events := testEvents(time.Now())
	assert.Equal(t, ids(events), ids(Filter(events, FilterOptions{})))
}

func TestFilter_ByDisplay(t *testing.T) {
	dpy := model.DisplayHandle(1)
	result := Filter(testEvents(time.Now()), FilterOptions{Display: &dpy})
	assert.Equal(t, []string{"01B", "01D"}, ids(result))
}

func TestFilter_ByKind(t *testing.T) {
	result := Filter(testEvents(time.Now()), FilterOptions{Kind: model.CallbackVsync})
	assert.Equal(t, []string{"01C", "01E"}, ids(result))
}

func TestFilter_BySince(t *testing.T) {
	result := Filter(testEvents(time.Now()), FilterOptions{Since: time.Hour})
	assert.Equal(t, []string{"01C", "01D", "01E"}, ids(result))
}

func TestFilter_LimitKeepsNewest(t *testing.T) {
	result := Filter(testEvents(time.Now()), FilterOptions{Limit: 2})
	assert.Equal(t, []string{"01D", "01E"}, ids(result))
}

func TestFilter_Combined(t *testing.T) {
	dpy := model.DisplayHandle(0)
	result := Filter(testEvents(time.Now()), FilterOptions{
		Display: &dpy,
		Kind:    model.CallbackVsync,
		Since:   time.Hour,
		Limit:   1,
	})
	assert.Equal(t, []string{"01E"}, ids(result))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"1h", time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"xd", 0, true},
		{"xw", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr    string
		count   int
		wantErr bool
	}{
		{"", 0, false},
		{"kind=vsync", 1, false},
		{"display>=1,kind!=vsync", 2, false},
		{"detail~=^dis", 1, false},
		{"time>1h", 1, false},
		{"kind=vsync,,", 1, false},
		{"colour=red", 0, true},
		{"display=abc", 0, true},
		{"display=-1", 0, true},
		{"time>soon", 0, true},
		{"detail~=[", 0, true},
		{"novalue", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, f.Conditions, tt.count)
		})
	}
}

func TestFilterWithExpr(t *testing.T) {
	events := testEvents(time.Now())

	tests := []struct {
		expr string
		want []string
	}{
		{"", []string{"01A", "01B", "01C", "01D", "01E"}},
		{"kind=hotplug", []string{"01A", "01B"}},
		{"type!=hotplug", []string{"01C", "01D", "01E"}},
		{"dpy=1", []string{"01B", "01D"}},
		{"display<1", []string{"01A", "01C", "01E"}},
		{"display>0", []string{"01B", "01D"}},
		{"display<=0,kind=vsync", []string{"01C", "01E"}},
		{"detail=disconnected", []string{"01B"}},
		{"connection~CONN", []string{"01A", "01B"}},
		{"detail~=^2", []string{"01E"}},
		{"kind~=^(re|vs)", []string{"01C", "01D", "01E"}},
		{"time>1h", []string{"01C", "01D", "01E"}},
		{"time<1h", []string{"01A", "01B"}},
		{"ts>=10m", []string{"01D", "01E"}},
		{"ts<=100m", []string{"01A"}},
		{"kind>vsync", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			got := ids(FilterWithExpr(events, f))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterWithExpr_Nil(t *testing.T) {
	events := testEvents(time.Now())
	assert.Len(t, FilterWithExpr(events, nil), len(events))
}
