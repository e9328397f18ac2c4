package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// DmenuFormatter formats one line per display or event, for launchers
// like dmenu/rofi/fuzzel. The first field is always the handle.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

func (f *DmenuFormatter) separator() string {
	if f.opts.Separator == "" {
		return " | "
	}
	return f.opts.Separator
}

// FormatDisplays writes displays in dmenu format (one per line).
func (f *DmenuFormatter) FormatDisplays(w io.Writer, displays []model.DisplaySummary) error {
	for _, d := range displays {
		if _, err := fmt.Fprintln(w, f.formatLine(d)); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single display line.
func (f *DmenuFormatter) formatLine(d model.DisplaySummary) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, d); err == nil {
			return buf.String()
		}
	}

	// Default format: id | name | mode | power
	parts := []string{fmt.Sprintf("%d", d.ID), d.Name}
	if c, ok := activeConfig(d); ok {
		parts = append(parts, modeString(c))
	}
	parts = append(parts, d.Power.String())
	return strings.Join(parts, f.separator())
}

// FormatConfigs writes configs in dmenu format (one per line).
func (f *DmenuFormatter) FormatConfigs(w io.Writer, configs []model.ConfigSummary) error {
	for _, c := range configs {
		active := ""
		if c.Active {
			active = "active"
		}
		line := strings.Join([]string{fmt.Sprintf("%d", c.Index), modeString(c.Config), active}, f.separator())
		if _, err := fmt.Fprintln(w, strings.TrimSuffix(line, f.separator())); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvents writes events in dmenu format (one per line).
func (f *DmenuFormatter) FormatEvents(w io.Writer, events []model.Event) error {
	for _, e := range events {
		parts := []string{e.ID, e.Kind.String(), fmt.Sprintf("dpy %d", e.Display)}
		if detail := e.Detail(); detail != "" {
			parts = append(parts, detail)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, f.separator())); err != nil {
			return err
		}
	}
	return nil
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"mode": func(d model.DisplaySummary) string {
			if c, ok := activeConfig(d); ok {
				return modeString(c)
			}
			return ""
		},
		"upper": strings.ToUpper,
	}
}

// modeString renders a config as WIDTHxHEIGHT@RATE.
func modeString(c model.Config) string {
	if rate := c.RefreshRate(); rate > 0 {
		return fmt.Sprintf("%dx%d@%.2f", c.Width, c.Height, rate)
	}
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}
