package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionString(t *testing.T) {
	tests := []struct {
		conn     Connection
		expected string
	}{
		{ConnectionConnected, "connected"},
		{ConnectionDisconnected, "disconnected"},
		{ConnectionInvalid, "invalid"},
		{Connection(42), "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.conn.String())
		})
	}
}

func TestParsePowerMode(t *testing.T) {
	tests := []struct {
		input    string
		expected PowerMode
		wantErr  bool
	}{
		{"on", PowerModeOn, false},
		{"OFF", PowerModeOff, false},
		{"doze", PowerModeDoze, false},
		{"doze-suspend", PowerModeDozeSuspend, false},
		{"doze_suspend", PowerModeDozeSuspend, false},
		{"standby", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParsePowerMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
			assert.Equal(t, mode, mustParsePower(t, mode.String()))
		})
	}
}

func mustParsePower(t *testing.T, s string) PowerMode {
	t.Helper()
	m, err := ParsePowerMode(s)
	require.NoError(t, err)
	return m
}

func TestParseVsync(t *testing.T) {
	v, err := ParseVsync("on")
	require.NoError(t, err)
	assert.Equal(t, VsyncEnable, v)

	v, err = ParseVsync("disabled")
	require.NoError(t, err)
	assert.Equal(t, VsyncDisable, v)

	v, err = ParseVsync("maybe")
	assert.Error(t, err)
	assert.Equal(t, VsyncInvalid, v)
}

func TestParseAttribute(t *testing.T) {
	for _, attr := range []Attribute{AttributeWidth, AttributeHeight, AttributeVsyncPeriod, AttributeDpiX, AttributeDpiY} {
		parsed, err := ParseAttribute(attr.String())
		require.NoError(t, err)
		assert.Equal(t, attr, parsed)
	}

	_, err := ParseAttribute("depth")
	assert.Error(t, err)
}

func TestTransformValid(t *testing.T) {
	assert.True(t, Transform(0).Valid())
	assert.True(t, TransformRot270.Valid())
	assert.False(t, Transform(8).Valid())
}

func TestCallbackKindString(t *testing.T) {
	assert.Equal(t, "hotplug", CallbackHotplug.String())
	assert.Equal(t, "vsync", CallbackVsync.String())
	assert.Equal(t, "refresh", CallbackRefresh.String())
	assert.Equal(t, "invalid", CallbackInvalid.String())
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		event    Event
		expected string
	}{
		{Event{Kind: CallbackHotplug, Value: int64(ConnectionDisconnected)}, "disconnected"},
		{Event{Kind: CallbackVsync, Value: 123456789}, "123456789"},
		{Event{Kind: CallbackRefresh}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.event.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Detail())
		})
	}
}

func TestParseCallbackKind(t *testing.T) {
	for _, k := range []CallbackKind{CallbackHotplug, CallbackRefresh, CallbackVsync} {
		got, err := ParseCallbackKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseCallbackKind("invalid")
	assert.Error(t, err)
}
