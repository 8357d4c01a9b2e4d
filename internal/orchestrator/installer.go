package orchestrator

import (
	"github.com/cockroachdb/errors"

	"mailstack-cli/internal/interfaces"
)

// nonComponents are configuration sections that do not map to an installable
// component
var nonComponents = map[string]bool{
	"general":     true,
	"certificate": true,
	"letsencrypt": true,
	"database":    true,
	"postgres":    true,
	"mysql":       true,
	"antispam":    true,
	"backup":      true,
}

// ListComponents returns the components to install, in file order. Sections
// with enabled = false are skipped.
func ListComponents(cfg interfaces.ConfigReader) ([]string, error) {
	var components []string
	for _, section := range cfg.Sections() {
		if nonComponents[section] {
			continue
		}
		if cfg.HasOption(section, "enabled") {
			enabled, err := cfg.GetBool(section, "enabled")
			if err != nil {
				return nil, err
			}
			if !enabled {
				continue
			}
		}
		components = append(components, section)
	}
	return components, nil
}

// planner is implemented by installers that only describe their work
type planner interface {
	Plans() []interfaces.ComponentPlan
}

// PlanInstaller records what each component installation would touch
// without changing the system
type PlanInstaller struct {
	plans []interfaces.ComponentPlan
}

var _ interfaces.ComponentInstaller = (*PlanInstaller)(nil)

// NewPlanInstaller creates an empty plan
func NewPlanInstaller() *PlanInstaller {
	return &PlanInstaller{}
}

// Install reads the component settings the real installer would use
func (p *PlanInstaller) Install(component string, cfg interfaces.ConfigReader, upgrade bool) error {
	if !cfg.HasSection(component) {
		return errors.Newf("unknown component %s", component)
	}

	plan := interfaces.ComponentPlan{Name: component}
	for option, field := range map[string]*string{
		"user":       &plan.User,
		"config_dir": &plan.ConfigDir,
		"dbname":     &plan.Database,
		"dbuser":     &plan.DBUser,
	} {
		if !cfg.HasOption(component, option) {
			continue
		}
		value, err := cfg.Get(component, option)
		if err != nil {
			return errors.Wrapf(err, "planning %s", component)
		}
		*field = value
	}

	p.plans = append(p.plans, plan)
	return nil
}

// Plans returns the recorded plans in installation order
func (p *PlanInstaller) Plans() []interfaces.ComponentPlan {
	out := make([]interfaces.ComponentPlan, len(p.plans))
	copy(out, p.plans)
	return out
}
