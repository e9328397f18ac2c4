package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// YAMLFormatter formats displays and events as YAML documents.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// FormatDisplays writes displays as a YAML sequence.
func (f *YAMLFormatter) FormatDisplays(w io.Writer, displays []model.DisplaySummary) error {
	if displays == nil {
		displays = []model.DisplaySummary{}
	}
	return f.encode(w, displays)
}

// FormatConfigs writes configs as a YAML sequence.
func (f *YAMLFormatter) FormatConfigs(w io.Writer, configs []model.ConfigSummary) error {
	if configs == nil {
		configs = []model.ConfigSummary{}
	}
	return f.encode(w, configs)
}

// FormatEvents writes events as a YAML sequence.
func (f *YAMLFormatter) FormatEvents(w io.Writer, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	return f.encode(w, events)
}
