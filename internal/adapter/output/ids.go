package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// IDsFormatter outputs just the handles or event ids, one per line.
// Useful for piping to other commands (e.g., fbhwc power --stdin).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// FormatDisplays writes display handles to the writer, one per line.
func (f *IDsFormatter) FormatDisplays(w io.Writer, displays []model.DisplaySummary) error {
	for _, d := range displays {
		if _, err := fmt.Fprintln(w, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// FormatConfigs writes config indices to the writer, one per line.
func (f *IDsFormatter) FormatConfigs(w io.Writer, configs []model.ConfigSummary) error {
	for _, c := range configs {
		if _, err := fmt.Fprintln(w, c.Index); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvents writes event ids to the writer, one per line.
func (f *IDsFormatter) FormatEvents(w io.Writer, events []model.Event) error {
	for _, e := range events {
		if _, err := fmt.Fprintln(w, e.ID); err != nil {
			return err
		}
	}
	return nil
}
