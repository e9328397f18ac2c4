// Package output provides output formatters for displays and events.
package output

import (
	"io"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// Formatter formats registry snapshots for output.
type Formatter interface {
	// FormatDisplays writes display snapshots to the writer.
	FormatDisplays(w io.Writer, displays []model.DisplaySummary) error
	// FormatConfigs writes the configs of one display to the writer.
	FormatConfigs(w io.Writer, configs []model.ConfigSummary) error
	// FormatEvents writes delivered events to the writer.
	FormatEvents(w io.Writer, events []model.Event) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatYAML  FormatType = "yaml"
)

// ValidFormats returns all valid format values.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs, FormatDmenu}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatIDs:
		return NewIDsFormatter()
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template    string // Custom template for dmenu format
	Color       bool   // Style plain output
	ShowConfigs bool   // List every config under each display
	Separator   string // Field separator for dmenu format
	Compact     bool   // Single-line JSON
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Color:       true,
		ShowConfigs: true,
		Separator:   " | ",
	}
}

// activeConfig returns the active config of a display, if it is listed.
func activeConfig(d model.DisplaySummary) (model.Config, bool) {
	for _, c := range d.Configs {
		if c.Index == d.ActiveConfig {
			return c.Config, true
		}
	}
	return model.Config{}, false
}
