package interfaces

import (
	"text/template"
	"time"
)

// OptionRef names one option of one section
type OptionRef struct {
	Section string `json:"section"`
	Option  string `json:"option"`
}

// String returns the dotted section.option form
func (r OptionRef) String() string {
	return r.Section + "." + r.Option
}

// ReportData is what the migration report template sees
type ReportData struct {
	Path            string      `json:"path"`
	Backup          string      `json:"backup"`
	Applied         bool        `json:"applied"`
	Changed         bool        `json:"changed"`
	DroppedSections []string    `json:"dropped_sections"`
	AddedSections   []string    `json:"added_sections"`
	DroppedOptions  []OptionRef `json:"dropped_options"`
	AddedOptions    []OptionRef `json:"added_options"`
	Drifted         []OptionRef `json:"drifted"`
}

// ComponentPlan describes what one component installation will touch
type ComponentPlan struct {
	Name      string `json:"name"`
	User      string `json:"user"`
	ConfigDir string `json:"config_dir"`
	Database  string `json:"database"`
	DBUser    string `json:"db_user"`
}

// SummaryData is what the component summary template sees
type SummaryData struct {
	Hostname   string          `json:"hostname"`
	Upgrade    bool            `json:"upgrade"`
	Components []string        `json:"components"`
	Plans      []ComponentPlan `json:"plans"`
	Extensions []string        `json:"extensions"`
	Now        time.Time       `json:"now"`
}

// TemplateProcessor handles template loading and execution
type TemplateProcessor interface {
	// LoadTemplate loads a named embedded template
	LoadTemplate(name string) (*template.Template, error)

	// Execute executes a template with the provided data
	Execute(tmpl *template.Template, data any) (string, error)
}
