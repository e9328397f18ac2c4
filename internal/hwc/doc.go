// Package hwc is the control plane of the compositor adapter. It tracks the
// displays opened on a device, their configs, layers and power/vsync state,
// and delivers hotplug, vsync and refresh events to a single registered
// client.
//
// Every external call goes through a Registry, which resolves display and
// layer handles before touching any state. Hotplug events that arrive before
// a hotplug callback is registered are queued and replayed in order on
// registration; vsync and refresh events without a callback are dropped.
package hwc
