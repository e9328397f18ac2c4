// Package input provides input adapters for event history sources.
package input

import (
	"context"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// InputAdapter fetches recorded events from a source.
type InputAdapter interface {
	// Name returns the adapter identifier (e.g., "daemon", "stdin").
	Name() string

	// Import fetches events from the source, oldest first.
	Import(ctx context.Context) ([]model.Event, error)
}

// NewAdapter creates an InputAdapter for source: "" or "daemon" asks the
// running daemon over bus, "-" or "stdin" reads standard input, anything
// else is a journal file path.
func NewAdapter(source, bus string) InputAdapter {
	switch source {
	case "", "daemon":
		return NewDaemonAdapter(bus)
	case "-", "stdin":
		return NewStdinAdapter()
	default:
		return NewJournalAdapter(source)
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
