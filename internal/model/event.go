package model

import (
	"strconv"
	"time"
)

// Event is one callback delivery recorded by the daemon.
type Event struct {
	ID       string        `json:"id" yaml:"id"` // ULID
	Kind     CallbackKind  `json:"-" yaml:"-"`
	KindName string        `json:"kind" yaml:"kind"`
	Display  DisplayHandle `json:"display" yaml:"display"`
	// Value is the Connection for hotplug and the timestamp in
	// nanoseconds for vsync. It is unused for refresh.
	Value int64     `json:"value" yaml:"value"`
	Time  time.Time `json:"time" yaml:"time"`
}

// Detail describes the event value in words.
func (e Event) Detail() string {
	switch e.Kind {
	case CallbackHotplug:
		return Connection(e.Value).String()
	case CallbackVsync:
		return strconv.FormatInt(e.Value, 10)
	default:
		return ""
	}
}
