package model

// ConfigSummary is a config together with its index.
type ConfigSummary struct {
	Index  ConfigIndex `json:"index" yaml:"index"`
	Active bool        `json:"active" yaml:"active"`
	Config `yaml:",inline"`
}

// DisplaySummary is a point-in-time snapshot of one display, used by the
// D-Bus surface and the CLI formatters.
type DisplaySummary struct {
	ID           DisplayHandle   `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Type         DisplayType     `json:"-" yaml:"-"`
	TypeName     string          `json:"type" yaml:"type"`
	Connection   Connection      `json:"-" yaml:"-"`
	ConnName     string          `json:"connection" yaml:"connection"`
	Power        PowerMode       `json:"-" yaml:"-"`
	PowerName    string          `json:"power" yaml:"power"`
	VsyncEnabled bool            `json:"vsync_enabled" yaml:"vsync_enabled"`
	ActiveConfig ConfigIndex     `json:"active_config" yaml:"active_config"`
	Layers       int             `json:"layers" yaml:"layers"`
	Configs      []ConfigSummary `json:"configs" yaml:"configs"`
}

// Normalize fills the printable state names from the typed fields.
func (s *DisplaySummary) Normalize() {
	s.TypeName = s.Type.String()
	s.ConnName = s.Connection.String()
	s.PowerName = s.Power.String()
}
