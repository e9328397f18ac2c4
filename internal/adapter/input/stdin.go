package input

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/fbhwc/internal/model"
	"github.com/jmylchreest/fbhwc/internal/store"
)

// maxInputSize bounds what is read from standard input.
const maxInputSize = 10 * 1024 * 1024

// StdinAdapter reads events from standard input.
type StdinAdapter struct {
	reader io.Reader
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return &StdinAdapter{reader: os.Stdin}
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// Import reads events from standard input.
// Supports three formats:
// 1. JSON array (fbhwc events -o json)
// 2. YAML sequence (fbhwc events -o yaml)
// 3. JSONL, with or without a journal header
func (a *StdinAdapter) Import(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(a.reader, maxInputSize))
	if err != nil {
		return nil, &AdapterError{Source: "stdin", Message: "failed to read stdin", Err: err}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		return parseJSONArray(data)
	case '{':
		events, err := store.ReadEvents(bytes.NewReader(data))
		if err != nil {
			return nil, &AdapterError{Source: "stdin", Message: "failed to parse JSONL input", Err: err}
		}
		return events, nil
	default:
		return parseYAML(data)
	}
}

// parseJSONArray parses a JSON array of events.
func parseJSONArray(data []byte) ([]model.Event, error) {
	var entries []model.Event
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &AdapterError{Source: "stdin", Message: "failed to parse JSON input", Err: err}
	}
	return resolveKinds(entries), nil
}

// parseYAML parses a YAML sequence of events.
func parseYAML(data []byte) ([]model.Event, error) {
	var entries []model.Event
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &AdapterError{Source: "stdin", Message: "failed to parse YAML input", Err: err}
	}
	return resolveKinds(entries), nil
}

// resolveKinds sets Kind from the decoded kind name, dropping entries
// without an id or with an unknown kind.
func resolveKinds(entries []model.Event) []model.Event {
	events := make([]model.Event, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		kind, err := model.ParseCallbackKind(e.KindName)
		if err != nil {
			continue
		}
		e.Kind = kind
		events = append(events, e)
	}
	return events
}
