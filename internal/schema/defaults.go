package schema

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// ResolveDefault computes the default of opt. Generators run once per call,
// so callers must keep the returned value rather than calling again.
func ResolveDefault(opt Option, resolved Lookup) (string, error) {
	switch d := opt.Default.(type) {
	case Literal:
		return string(d), nil
	case Generated:
		return d(), nil
	case DerivedBool:
		ok, err := Evaluate([]string(d), resolved)
		if err != nil {
			return "", errors.Wrapf(err, "default of %s", opt.Name)
		}
		return strconv.FormatBool(ok), nil
	case nil:
		return "", errors.AssertionFailedf("option %s has no default", opt.Name)
	default:
		return "", errors.AssertionFailedf("option %s has unknown default kind %T", opt.Name, d)
	}
}
