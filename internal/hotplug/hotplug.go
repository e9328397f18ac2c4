// Package hotplug turns output appearance and disappearance into registry
// hotplug events.
package hotplug

import (
	"github.com/jmylchreest/fbhwc/internal/device"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// Target receives hotplug events. *hwc.Registry implements it.
type Target interface {
	DisplayForOutput(id device.OutputID) (model.DisplayHandle, bool)
	OnHotplug(dpy model.DisplayHandle, conn model.Connection)
}

// Resolver maps a device node name to the output it represents.
// fbdev.ParseNodeName is the resolver for framebuffer nodes.
type Resolver func(name string) (device.OutputID, bool)

func connectionFor(present bool) model.Connection {
	if present {
		return model.ConnectionConnected
	}
	return model.ConnectionDisconnected
}
