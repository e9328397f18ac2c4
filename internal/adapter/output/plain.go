package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// PlainFormatter formats displays and events as human readable text.
type PlainFormatter struct {
	opts FormatterOptions

	headerStyle lipgloss.Style
	labelStyle  lipgloss.Style
	goodStyle   lipgloss.Style
	badStyle    lipgloss.Style
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}
	if opts.Color {
		f.headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		f.labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		f.goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		f.badStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	return f
}

// FormatDisplays writes one block per display.
func (f *PlainFormatter) FormatDisplays(w io.Writer, displays []model.DisplaySummary) error {
	if len(displays) == 0 {
		_, err := fmt.Fprintln(w, "no displays")
		return err
	}

	for _, d := range displays {
		if _, err := io.WriteString(w, f.formatDisplay(d)); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatDisplay(d model.DisplaySummary) string {
	var sb strings.Builder

	sb.WriteString(f.headerStyle.Render(fmt.Sprintf("%s (%d)", d.Name, d.ID)))
	sb.WriteString("\n")

	vsync := "off"
	if d.VsyncEnabled {
		vsync = "on"
	}
	fields := []string{
		f.field("type", d.Type.String()),
		f.field("connection", f.state(d.Connection.String(), d.Connection == model.ConnectionConnected)),
		f.field("power", f.state(d.Power.String(), d.Power == model.PowerModeOn)),
		f.field("vsync", vsync),
		f.field("layers", humanize.Comma(int64(d.Layers))),
	}
	sb.WriteString("  " + strings.Join(fields, "  ") + "\n")

	if f.opts.ShowConfigs {
		for _, c := range d.Configs {
			sb.WriteString("  " + f.formatConfig(c) + "\n")
		}
	} else if c, ok := activeConfig(d); ok {
		sb.WriteString("  " + f.formatConfig(model.ConfigSummary{Index: d.ActiveConfig, Active: true, Config: c}) + "\n")
	}
	return sb.String()
}

func (f *PlainFormatter) formatConfig(c model.ConfigSummary) string {
	marker := " "
	if c.Active {
		marker = "*"
	}

	line := fmt.Sprintf("%s[%d] %dx%d", marker, c.Index, c.Width, c.Height)
	if rate := c.RefreshRate(); rate > 0 {
		// round first; SIWithDigits truncates
		line += " @ " + humanize.SIWithDigits(math.Round(rate*100)/100, 2, "Hz")
	}
	line += " " + f.labelStyle.Render(fmt.Sprintf("dpi %dx%d", c.DpiX, c.DpiY))
	return line
}

func (f *PlainFormatter) field(label, value string) string {
	return f.labelStyle.Render(label) + " " + value
}

func (f *PlainFormatter) state(value string, good bool) string {
	if good {
		return f.goodStyle.Render(value)
	}
	return f.badStyle.Render(value)
}

// FormatConfigs writes one line per config.
func (f *PlainFormatter) FormatConfigs(w io.Writer, configs []model.ConfigSummary) error {
	for _, c := range configs {
		if _, err := io.WriteString(w, f.formatConfig(c)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvents writes one line per event, oldest first.
func (f *PlainFormatter) FormatEvents(w io.Writer, events []model.Event) error {
	for _, e := range events {
		if _, err := io.WriteString(w, f.formatEvent(e)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatEvent(e model.Event) string {
	parts := []string{
		f.labelStyle.Render(relativeTime(e.Time)),
		f.headerStyle.Render(fmt.Sprintf("%-7s", e.Kind.String())),
		fmt.Sprintf("dpy %d", e.Display),
	}
	if detail := e.Detail(); detail != "" {
		if e.Kind == model.CallbackHotplug {
			detail = f.state(detail, model.Connection(e.Value) == model.ConnectionConnected)
		}
		parts = append(parts, detail)
	}
	return strings.Join(parts, "  ")
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.Time(t)
}
