package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigAttribute(t *testing.T) {
	cfg := NewConfig(1920, 1080, 16667, DefaultDPI, DefaultDPI)

	tests := []struct {
		attr     Attribute
		expected int32
		ok       bool
	}{
		{AttributeWidth, 1920, true},
		{AttributeHeight, 1080, true},
		{AttributeVsyncPeriod, 16667, true},
		{AttributeDpiX, 324, true},
		{AttributeDpiY, 324, true},
		{AttributeInvalid, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.attr.String(), func(t *testing.T) {
			v, ok := cfg.Attribute(tt.attr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestConfigRefreshRate(t *testing.T) {
	assert.InDelta(t, 60.0, NewConfig(1, 1, 16666667, 0, 0).RefreshRate(), 0.001)
	assert.Zero(t, Config{}.RefreshRate())
}

func TestLayerClone(t *testing.T) {
	l := NewLayer(7)
	l.Buffer = &Buffer{Ref: 1, AcquireFence: -1}
	l.SurfaceDamage = Region{{0, 0, 10, 10}}

	c := l.Clone()
	c.Buffer.Ref = 2
	c.SurfaceDamage[0].Right = 99

	assert.Equal(t, BufferRef(1), l.Buffer.Ref)
	assert.Equal(t, int32(10), l.SurfaceDamage[0].Right)
	assert.Equal(t, float32(1.0), l.PlaneAlpha)
	assert.Equal(t, BlendModeNone, l.BlendMode)
}
