package template

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"

	"mailstack-cli/internal/interfaces"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Template names shipped with the tool
const (
	ReportTemplate  = "report"
	SummaryTemplate = "summary"
	PlanTemplate    = "plan"
)

// Processor implements the TemplateProcessor interface
type Processor struct {
	// overrideDir, when set, is searched before the embedded templates
	overrideDir string
}

var _ interfaces.TemplateProcessor = (*Processor)(nil)

// NewProcessor creates a new template processor. overrideDir may be empty.
func NewProcessor(overrideDir string) *Processor {
	return &Processor{
		overrideDir: overrideDir,
	}
}

// LoadTemplate loads a template by name, or from a file when given a path
func (p *Processor) LoadTemplate(nameOrPath string) (*template.Template, error) {
	if filepath.IsAbs(nameOrPath) || strings.Contains(nameOrPath, string(filepath.Separator)) {
		return p.loadTemplateFromPath(nameOrPath)
	}

	if p.overrideDir != "" {
		candidate := filepath.Join(p.overrideDir, nameOrPath+".tmpl")
		if _, err := os.Stat(candidate); err == nil {
			return p.loadTemplateFromPath(candidate)
		}
	}

	content, err := builtin.ReadFile("templates/" + strings.ToLower(nameOrPath) + ".tmpl")
	if err != nil {
		return nil, errors.Newf("template not found: %s", nameOrPath)
	}
	return p.parse(nameOrPath, string(content))
}

// loadTemplateFromPath loads a template from a specific file path
func (p *Processor) loadTemplateFromPath(path string) (*template.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template file %s", path)
	}
	return p.parse(filepath.Base(path), string(content))
}

func (p *Processor) parse(name, content string) (*template.Template, error) {
	tmpl := template.New(name).Funcs(funcMap())
	tmpl, err := tmpl.Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}
	return tmpl, nil
}

// Execute executes a template with the provided data
func (p *Processor) Execute(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "failed to execute template")
	}
	return buf.String(), nil
}

// Render loads and executes a template in one step
func (p *Processor) Render(name string, data any) (string, error) {
	tmpl, err := p.LoadTemplate(name)
	if err != nil {
		return "", err
	}
	return p.Execute(tmpl, data)
}

// funcMap merges sprig with the helpers specific to configuration reports
func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["refs"] = refsFunc
	funcs["truncate"] = truncateFunc
	funcs["mask"] = maskFunc
	return funcs
}

// refsFunc joins option references as "section.option, ..."
func refsFunc(refs []interfaces.OptionRef) string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.String())
	}
	return strings.Join(out, ", ")
}

// truncateFunc truncates a string to a specified length
func truncateFunc(length int, text string) string {
	if len(text) <= length {
		return text
	}

	if length <= 3 {
		return text[:length]
	}

	return text[:length-3] + "..."
}

// maskFunc hides a secret, keeping its first two characters
func maskFunc(secret string) string {
	if len(secret) <= 2 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-2)
}
