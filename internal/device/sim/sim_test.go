package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/device"
)

func TestDevice_OpenAndClose(t *testing.T) {
	d := New(OutputSpec{Name: "panel", Width: 1920, Height: 1080, VsyncPeriodNs: 16667})

	ids, err := d.Enumerate()
	require.NoError(t, err)
	require.Equal(t, []device.OutputID{0}, ids)

	out, err := d.Open(0)
	require.NoError(t, err)
	assert.Equal(t, "panel", out.Name)
	assert.Equal(t, uint32(1920), out.Geometry.Width)
	assert.Equal(t, 1, d.OpenCount())

	require.NoError(t, d.SetPower(out.Handle, true))
	assert.True(t, d.Blanked(0))

	require.NoError(t, d.Present(out.Handle, []byte{1, 2, 3}))
	assert.Equal(t, 1, d.Presented(0))

	require.NoError(t, d.Close(out.Handle))
	assert.Equal(t, 0, d.OpenCount())
	assert.Equal(t, []device.OutputID{0}, d.Closed())

	assert.ErrorIs(t, d.Close(out.Handle), device.ErrUnknownHandle)
}

func TestDevice_PlugUnplug(t *testing.T) {
	d := New(OutputSpec{Width: 800, Height: 600}, OutputSpec{Width: 640, Height: 480})

	d.Unplug(0)
	ids, err := d.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []device.OutputID{1}, ids)

	_, err = d.Open(0)
	assert.ErrorIs(t, err, device.ErrNotFound)

	d.Plug(0, OutputSpec{})
	d.Plug(5, OutputSpec{Width: 1, Height: 1})
	ids, err = d.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []device.OutputID{0, 1, 5}, ids)
}

func TestDevice_Faults(t *testing.T) {
	d := New(OutputSpec{Width: 800, Height: 600})
	boom := errors.New("boom")

	d.FailOpen(0, boom)
	_, err := d.Open(0)
	assert.ErrorIs(t, err, boom)

	d.FailEnumerate(boom)
	_, err = d.Enumerate()
	assert.ErrorIs(t, err, boom)
}
