// Package migration carries an existing configuration file forward to the
// current schema.
package migration

import (
	"mailstack-cli/internal/interfaces"
)

// Report describes how an existing configuration differs from a fresh
// resolution of the schema
type Report struct {
	DroppedSections []string
	AddedSections   []string
	DroppedOptions  []interfaces.OptionRef
	AddedOptions    []interfaces.OptionRef

	// Drifted lists options whose stored value differs from the fresh default
	Drifted []interfaces.OptionRef

	Changed bool
}

// Structural reports whether sections or options were added or dropped
func (r Report) Structural() bool {
	return len(r.DroppedSections)+len(r.AddedSections)+len(r.DroppedOptions)+len(r.AddedOptions) > 0
}

// Data converts the report for the report template
func (r Report) Data(path, backup string, applied bool) interfaces.ReportData {
	return interfaces.ReportData{
		Path:            path,
		Backup:          backup,
		Applied:         applied,
		Changed:         r.Changed,
		DroppedSections: r.DroppedSections,
		AddedSections:   r.AddedSections,
		DroppedOptions:  r.DroppedOptions,
		AddedOptions:    r.AddedOptions,
		Drifted:         r.Drifted,
	}
}

// DiffAndMerge compares old against fresh and builds the merged
// configuration: the layout of fresh, with the raw old value of every
// option both share. Options only in old are dropped.
//
// Drift alone marks the report changed only while old is not laid out
// exactly like the merge result, so migrating a migrated file is a no-op.
func DiffAndMerge(old, fresh *interfaces.ResolvedConfig) (Report, *interfaces.ResolvedConfig) {
	var report Report
	merged := interfaces.NewResolvedConfig()

	for _, name := range old.Sections() {
		if !fresh.HasSection(name) {
			report.DroppedSections = append(report.DroppedSections, name)
		}
	}

	for _, name := range fresh.Sections() {
		bucket := merged.AddSection(name)
		if !old.HasSection(name) {
			report.AddedSections = append(report.AddedSections, name)
			for _, option := range fresh.Options(name) {
				value, _ := fresh.Get(name, option)
				bucket.Set(option, value)
			}
			continue
		}

		for _, option := range old.Options(name) {
			if _, ok := fresh.Get(name, option); !ok {
				report.DroppedOptions = append(report.DroppedOptions, interfaces.OptionRef{Section: name, Option: option})
			}
		}

		for _, option := range fresh.Options(name) {
			freshValue, _ := fresh.Get(name, option)
			oldValue, ok := old.Get(name, option)
			if !ok {
				report.AddedOptions = append(report.AddedOptions, interfaces.OptionRef{Section: name, Option: option})
				bucket.Set(option, freshValue)
				continue
			}
			if oldValue != freshValue {
				report.Drifted = append(report.Drifted, interfaces.OptionRef{Section: name, Option: option})
			}
			bucket.Set(option, oldValue)
		}
	}

	report.Changed = report.Structural() || (len(report.Drifted) > 0 && !old.Equal(merged))
	return report, merged
}
