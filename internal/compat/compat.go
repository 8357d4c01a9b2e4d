// Package compat decides which components and extensions may be installed
// together.
package compat

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"

	"mailstack-cli/internal/interfaces"
)

// LatestVersion installs the newest release without pinning extensions
const LatestVersion = "latest"

// ErrIncompatibleApps is returned when conflicting components are enabled
var ErrIncompatibleApps = errors.New("incompatible components enabled")

// AppIncompatibility lists, per component, the components it cannot run with
var AppIncompatibility = map[string][]string{
	"opendkim":     {"rspamd"},
	"amavis":       {"rspamd"},
	"spamassassin": {"rspamd"},
}

// CheckApps reports every enabled component that conflicts with another
// enabled one. All conflicts are collected before returning.
func CheckApps(components []string, cfg interfaces.ConfigReader) error {
	var result *multierror.Error
	for _, component := range components {
		for _, other := range AppIncompatibility[component] {
			enabled, err := cfg.GetBool(other, "enabled")
			if err != nil || !enabled {
				continue
			}
			result = multierror.Append(result, errors.Wrapf(ErrIncompatibleApps,
				"%s cannot be installed if %s is enabled. Please disable one of them", component, other))
		}
	}
	return result.ErrorOrNil()
}

// Matrix holds the extension version data for pinned releases
type Matrix struct {
	// Constraints maps a release to extension requirement specifiers
	Constraints map[string]map[string]string
	// Availability maps an extension to the first release shipping it
	Availability map[string]string
	// Removed maps an extension to the first release without it
	Removed map[string]string
}

// Default returns the compatibility data shipped with the installer
func Default() *Matrix {
	return &Matrix{
		Constraints: map[string]map[string]string{
			"1.8.1": {
				"modoboa-pdfcredentials": "<=1.1.0",
				"modoboa-sievefilters":   "<=1.1.0",
				"modoboa-webmail":        "<=1.1.5",
			},
		},
		Availability: map[string]string{
			"modoboa-contacts": "1.7.4",
		},
		Removed: map[string]string{},
	}
}

// Skipped is an extension left out of an installation
type Skipped struct {
	Name   string
	Reason string
}

// Plan is the outcome of checking extensions against a release
type Plan struct {
	Release string
	// Requirements are the package specifiers to install, e.g. "modoboa-webmail<=1.1.5"
	Requirements []string
	Skipped      []Skipped
}

// Extensions decides which extensions can be installed with release. With
// LatestVersion every extension not removed is kept, without pinning.
func (m *Matrix) Extensions(release string, extensions []string) (Plan, error) {
	plan := Plan{Release: release}

	if release == LatestVersion {
		for _, ext := range extensions {
			if _, gone := m.Removed[ext]; gone {
				plan.Skipped = append(plan.Skipped, Skipped{Name: ext, Reason: "removed from recent releases"})
				continue
			}
			plan.Requirements = append(plan.Requirements, ext)
		}
		return plan, nil
	}

	current, err := version.NewVersion(release)
	if err != nil {
		return plan, errors.WithHint(
			errors.Wrapf(err, "modoboa version %q", release),
			"set modoboa.version to \"latest\" or to a release such as 1.8.1")
	}
	pins, ok := m.Constraints[release]
	if !ok {
		return plan, errors.WithHintf(
			errors.Newf("no compatibility data for modoboa %s", release),
			"known releases: %v", m.Releases())
	}

	for _, ext := range extensions {
		if reason, ok, err := m.available(ext, current); err != nil {
			return plan, err
		} else if !ok {
			plan.Skipped = append(plan.Skipped, Skipped{Name: ext, Reason: reason})
			continue
		}
		constraint, pinned := pins[ext]
		if !pinned || constraint == "" {
			plan.Requirements = append(plan.Requirements, ext)
			continue
		}
		if _, err := version.NewConstraint(constraint); err != nil {
			return plan, errors.Wrapf(err, "constraint %q for %s", constraint, ext)
		}
		plan.Requirements = append(plan.Requirements, ext+constraint)
	}
	return plan, nil
}

func (m *Matrix) available(ext string, current *version.Version) (string, bool, error) {
	if first, ok := m.Availability[ext]; ok {
		v, err := version.NewVersion(first)
		if err != nil {
			return "", false, errors.Wrapf(err, "availability of %s", ext)
		}
		if current.LessThan(v) {
			return fmt.Sprintf("requires modoboa %s or later", v), false, nil
		}
		return "", true, nil
	}
	if last, ok := m.Removed[ext]; ok {
		v, err := version.NewVersion(last)
		if err != nil {
			return "", false, errors.Wrapf(err, "removal of %s", ext)
		}
		if !current.LessThan(v) {
			return fmt.Sprintf("removed in modoboa %s", v), false, nil
		}
	}
	return "", true, nil
}

// Releases returns the pinned releases known to the matrix, oldest first
func (m *Matrix) Releases() []string {
	var versions version.Collection
	for raw := range m.Constraints {
		if v, err := version.NewVersion(raw); err == nil {
			versions = append(versions, v)
		}
	}
	sort.Sort(versions)
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.Original())
	}
	return out
}
