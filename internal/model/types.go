// Package model defines the core data structures shared by the registry,
// the device backends and the outer surfaces of fbhwc.
package model

import (
	"fmt"
	"strings"
)

// DisplayHandle identifies a display to the client.
type DisplayHandle uint64

// LayerHandle identifies a layer to the client.
type LayerHandle uint64

// ConfigIndex identifies a config within a single display.
type ConfigIndex uint32

// DisplayType distinguishes physical outputs from virtual targets.
type DisplayType int

const (
	DisplayTypeInvalid DisplayType = iota
	DisplayTypePhysical
	DisplayTypeVirtual
)

// String returns the string representation of DisplayType.
func (t DisplayType) String() string {
	switch t {
	case DisplayTypePhysical:
		return "physical"
	case DisplayTypeVirtual:
		return "virtual"
	default:
		return "invalid"
	}
}

// Connection is the hotplug state of a display.
type Connection int

const (
	ConnectionInvalid Connection = iota
	ConnectionConnected
	ConnectionDisconnected
)

// String returns the string representation of Connection.
func (c Connection) String() string {
	switch c {
	case ConnectionConnected:
		return "connected"
	case ConnectionDisconnected:
		return "disconnected"
	default:
		return "invalid"
	}
}

// PowerMode is the power state of a display.
type PowerMode int

const (
	PowerModeOff PowerMode = iota
	PowerModeDozeSuspend
	PowerModeDoze
	PowerModeOn
)

// String returns the string representation of PowerMode.
func (m PowerMode) String() string {
	switch m {
	case PowerModeOff:
		return "off"
	case PowerModeDozeSuspend:
		return "doze-suspend"
	case PowerModeDoze:
		return "doze"
	case PowerModeOn:
		return "on"
	default:
		return "unknown"
	}
}

// ParsePowerMode parses a power mode name as printed by String.
func ParsePowerMode(s string) (PowerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return PowerModeOff, nil
	case "doze-suspend", "doze_suspend":
		return PowerModeDozeSuspend, nil
	case "doze":
		return PowerModeDoze, nil
	case "on":
		return PowerModeOn, nil
	default:
		return 0, fmt.Errorf("invalid power mode %q, must be one of: on, off, doze, doze-suspend", s)
	}
}

// Vsync is the requested or current vsync delivery state.
type Vsync int

const (
	VsyncInvalid Vsync = iota
	VsyncEnable
	VsyncDisable
)

// String returns the string representation of Vsync.
func (v Vsync) String() string {
	switch v {
	case VsyncEnable:
		return "enabled"
	case VsyncDisable:
		return "disabled"
	default:
		return "invalid"
	}
}

// ParseVsync parses on/off style vsync arguments.
func ParseVsync(s string) (Vsync, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "enable", "enabled", "true", "1":
		return VsyncEnable, nil
	case "off", "disable", "disabled", "false", "0":
		return VsyncDisable, nil
	default:
		return VsyncInvalid, fmt.Errorf("invalid vsync state %q, must be on or off", s)
	}
}

// CompositionType is how a layer is composited.
type CompositionType int

const (
	CompositionInvalid CompositionType = iota
	CompositionClient
	CompositionDevice
	CompositionSolidColor
	CompositionCursor
	CompositionSideband
)

// String returns the string representation of CompositionType.
func (c CompositionType) String() string {
	switch c {
	case CompositionClient:
		return "client"
	case CompositionDevice:
		return "device"
	case CompositionSolidColor:
		return "solid-color"
	case CompositionCursor:
		return "cursor"
	case CompositionSideband:
		return "sideband"
	default:
		return "invalid"
	}
}

// BlendMode is how a layer blends with the layers below it.
type BlendMode int

const (
	BlendModeInvalid BlendMode = iota
	BlendModeNone
	BlendModePremultiplied
	BlendModeCoverage
)

// String returns the string representation of BlendMode.
func (b BlendMode) String() string {
	switch b {
	case BlendModeNone:
		return "none"
	case BlendModePremultiplied:
		return "premultiplied"
	case BlendModeCoverage:
		return "coverage"
	default:
		return "invalid"
	}
}

// Transform is a bitmask of flips and rotations applied to a layer.
type Transform int32

const (
	TransformFlipH   Transform = 1
	TransformFlipV   Transform = 2
	TransformRot90   Transform = 4
	TransformRot180            = TransformFlipH | TransformFlipV
	TransformRot270            = TransformRot180 | TransformRot90
)

// Valid reports whether only known transform bits are set.
func (t Transform) Valid() bool {
	return t&^(TransformFlipH|TransformFlipV|TransformRot90) == 0
}

// Attribute names one field of a Config.
type Attribute int

const (
	AttributeInvalid Attribute = iota
	AttributeWidth
	AttributeHeight
	AttributeVsyncPeriod
	AttributeDpiX
	AttributeDpiY
)

// String returns the string representation of Attribute.
func (a Attribute) String() string {
	switch a {
	case AttributeWidth:
		return "width"
	case AttributeHeight:
		return "height"
	case AttributeVsyncPeriod:
		return "vsync-period"
	case AttributeDpiX:
		return "dpi-x"
	case AttributeDpiY:
		return "dpi-y"
	default:
		return "invalid"
	}
}

// ParseAttribute parses an attribute name as printed by String.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "width":
		return AttributeWidth, nil
	case "height":
		return AttributeHeight, nil
	case "vsync-period", "vsync_period":
		return AttributeVsyncPeriod, nil
	case "dpi-x", "dpi_x":
		return AttributeDpiX, nil
	case "dpi-y", "dpi_y":
		return AttributeDpiY, nil
	default:
		return AttributeInvalid, fmt.Errorf("invalid attribute %q", s)
	}
}

// CallbackKind selects which event stream a callback receives.
type CallbackKind int

const (
	CallbackInvalid CallbackKind = iota
	CallbackHotplug
	CallbackRefresh
	CallbackVsync
)

// String returns the string representation of CallbackKind.
func (k CallbackKind) String() string {
	switch k {
	case CallbackHotplug:
		return "hotplug"
	case CallbackRefresh:
		return "refresh"
	case CallbackVsync:
		return "vsync"
	default:
		return "invalid"
	}
}

// ParseCallbackKind parses a callback kind name as printed by String.
func ParseCallbackKind(s string) (CallbackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hotplug":
		return CallbackHotplug, nil
	case "refresh":
		return CallbackRefresh, nil
	case "vsync":
		return CallbackVsync, nil
	default:
		return CallbackInvalid, fmt.Errorf("invalid callback kind %q", s)
	}
}
