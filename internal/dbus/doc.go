// Package dbus exposes the display registry on the message bus as the
// io.github.jmylchreest.Composer1 interface, and provides the client and
// signal monitor used by the fbhwc CLI.
package dbus
