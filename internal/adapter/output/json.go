package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// JSONFormatter formats displays and events as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatDisplays writes displays as a JSON array.
func (f *JSONFormatter) FormatDisplays(w io.Writer, displays []model.DisplaySummary) error {
	if displays == nil {
		displays = []model.DisplaySummary{}
	}
	return f.encode(w, displays)
}

// FormatConfigs writes configs as a JSON array.
func (f *JSONFormatter) FormatConfigs(w io.Writer, configs []model.ConfigSummary) error {
	if configs == nil {
		configs = []model.ConfigSummary{}
	}
	return f.encode(w, configs)
}

// FormatEvents writes events as a JSON array.
func (f *JSONFormatter) FormatEvents(w io.Writer, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	return f.encode(w, events)
}
