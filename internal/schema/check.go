package schema

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// Check verifies the ordering invariants every resolution relies on: each
// predicate references an option declared strictly earlier, names are
// unique, customizable options carry a question and non-interactive values
// are among the enumerated ones.
func (s *Schema) Check() error {
	var problems *multierror.Error
	declared := make(map[string]bool)
	sections := make(map[string]bool)

	refersBack := func(where string, predicates []string) {
		for _, raw := range predicates {
			p, err := ParsePredicate(raw)
			if err != nil {
				problems = multierror.Append(problems, err)
				continue
			}
			if !declared[p.Section+"."+p.Option] {
				problems = multierror.Append(problems, errors.Newf(
					"%s: predicate %q references an option that is not declared earlier", where, raw))
			}
		}
	}

	for _, sec := range s.sections {
		if sec.Name == "" {
			problems = multierror.Append(problems, errors.New("section with empty name"))
			continue
		}
		if sections[sec.Name] {
			problems = multierror.Append(problems, errors.Newf("section %s declared twice", sec.Name))
		}
		sections[sec.Name] = true
		refersBack("section "+sec.Name, sec.Condition)

		options := make(map[string]bool)
		for _, opt := range sec.Options {
			where := sec.Name + "." + opt.Name
			if opt.Name == "" {
				problems = multierror.Append(problems, errors.Newf("section %s has an option with empty name", sec.Name))
				continue
			}
			if options[opt.Name] {
				problems = multierror.Append(problems, errors.Newf("option %s declared twice", where))
			}
			options[opt.Name] = true

			refersBack(where, opt.Condition)
			switch d := opt.Default.(type) {
			case nil:
				problems = multierror.Append(problems, errors.Newf("option %s has no default", where))
			case DerivedBool:
				refersBack(where+" default", d)
			}
			if opt.Customizable && opt.Question == "" {
				problems = multierror.Append(problems, errors.Newf("customizable option %s has no question", where))
			}
			for _, v := range opt.NonInteractiveValues {
				if !contains(opt.Values, v) {
					problems = multierror.Append(problems, errors.Newf(
						"option %s: non-interactive value %q is not one of its values", where, v))
				}
			}
			if lit, ok := opt.Default.(Literal); ok && len(opt.Values) > 0 && !contains(opt.Values, string(lit)) {
				problems = multierror.Append(problems, errors.Newf(
					"option %s: default %q is not one of its values", where, string(lit)))
			}
			declared[where] = true
		}
	}

	if err := problems.ErrorOrNil(); err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "inconsistent configuration schema")
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
