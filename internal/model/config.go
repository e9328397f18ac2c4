package model

// DefaultDPI is reported on both axes when the hardware does not report DPI.
const DefaultDPI = 324

// Config is one display mode. It is never modified after creation.
type Config struct {
	Width         uint32 `json:"width" yaml:"width"`
	Height        uint32 `json:"height" yaml:"height"`
	VsyncPeriodNs uint32 `json:"vsync_period_ns" yaml:"vsync_period_ns"`
	DpiX          int32  `json:"dpi_x" yaml:"dpi_x"`
	DpiY          int32  `json:"dpi_y" yaml:"dpi_y"`
}

// NewConfig builds a Config from device geometry and DPI.
func NewConfig(width, height, vsyncPeriodNs uint32, dpiX, dpiY int32) Config {
	return Config{
		Width:         width,
		Height:        height,
		VsyncPeriodNs: vsyncPeriodNs,
		DpiX:          dpiX,
		DpiY:          dpiY,
	}
}

// Attribute returns the value of a single attribute.
// The second result is false for an unknown attribute.
func (c Config) Attribute(attr Attribute) (int32, bool) {
	switch attr {
	case AttributeWidth:
		return int32(c.Width), true
	case AttributeHeight:
		return int32(c.Height), true
	case AttributeVsyncPeriod:
		return int32(c.VsyncPeriodNs), true
	case AttributeDpiX:
		return c.DpiX, true
	case AttributeDpiY:
		return c.DpiY, true
	default:
		return 0, false
	}
}

// RefreshRate returns the refresh rate in Hz, or 0 when the period is unknown.
func (c Config) RefreshRate() float64 {
	if c.VsyncPeriodNs == 0 {
		return 0
	}
	return 1e9 / float64(c.VsyncPeriodNs)
}
