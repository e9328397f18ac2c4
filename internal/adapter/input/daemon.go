package input

import (
	"context"

	"github.com/jmylchreest/fbhwc/internal/dbus"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// DaemonAdapter fetches the event log of a running fbhwcd.
type DaemonAdapter struct {
	bus string
}

// NewDaemonAdapter creates a DaemonAdapter on bus ("session" or "system").
func NewDaemonAdapter(bus string) *DaemonAdapter {
	return &DaemonAdapter{bus: bus}
}

// Name returns the adapter identifier.
func (a *DaemonAdapter) Name() string {
	return "daemon"
}

// Import calls GetRecentEvents on the daemon.
func (a *DaemonAdapter) Import(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := dbus.Dial(a.bus)
	if err != nil {
		return nil, &AdapterError{Source: "daemon", Message: "failed to connect to fbhwcd", Err: err}
	}
	defer func() { _ = client.Close() }()

	events, err := client.RecentEvents()
	if err != nil {
		return nil, &AdapterError{Source: "daemon", Message: "failed to fetch events", Err: err}
	}
	return events, nil
}
