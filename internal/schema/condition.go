package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Predicate is a parsed "section.option=value" condition
type Predicate struct {
	Section string
	Option  string
	Value   string
}

// String returns the predicate in its source form
func (p Predicate) String() string {
	return p.Section + "." + p.Option + "=" + p.Value
}

// ParsePredicate parses "section.option=value". The value may be empty.
func ParsePredicate(s string) (Predicate, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Predicate{}, errors.AssertionFailedf("malformed predicate %q: missing '='", s)
	}
	section, option, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || option == "" || strings.Contains(option, ".") {
		return Predicate{}, errors.AssertionFailedf("malformed predicate %q: expected section.option=value", s)
	}
	return Predicate{Section: section, Option: option, Value: strings.TrimSpace(value)}, nil
}

// Evaluate reports whether every predicate holds against resolved. An empty
// list holds. Referencing an option that is not resolved yet is a schema
// ordering bug and returns an assertion failure.
func Evaluate(predicates []string, resolved Lookup) (bool, error) {
	result := true
	for _, raw := range predicates {
		p, err := ParsePredicate(raw)
		if err != nil {
			return false, err
		}
		value, ok := resolved.Get(p.Section, p.Option)
		if !ok {
			return false, errors.AssertionFailedf(
				"condition %q references %s.%s before it is resolved", raw, p.Section, p.Option)
		}
		if value != p.Value {
			result = false
		}
	}
	return result, nil
}
