package input

import (
	"context"

	"github.com/jmylchreest/fbhwc/internal/model"
	"github.com/jmylchreest/fbhwc/internal/store"
)

// JournalAdapter reads an fbhwcd event journal directly, without the
// daemon running.
type JournalAdapter struct {
	path string
}

// NewJournalAdapter creates a JournalAdapter for the journal at path.
func NewJournalAdapter(path string) *JournalAdapter {
	return &JournalAdapter{path: path}
}

// Name returns the adapter identifier.
func (a *JournalAdapter) Name() string {
	return "journal"
}

// Import reads every event in the journal.
func (a *JournalAdapter) Import(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := store.ReadJournal(a.path)
	if err != nil {
		return nil, &AdapterError{Source: "journal", Message: "failed to read " + a.path, Err: err}
	}
	return events, nil
}
