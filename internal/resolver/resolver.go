// Package resolver walks a schema once and produces a resolved configuration.
package resolver

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/schema"
)

// Elicitor asks the operator for the value of an option
type Elicitor interface {
	Elicit(opt schema.Option, defaultValue string, live bool) (string, error)
}

// defaultsOnly never prompts
type defaultsOnly struct{}

func (defaultsOnly) Elicit(_ schema.Option, defaultValue string, _ bool) (string, error) {
	return defaultValue, nil
}

// Resolver produces resolved configurations from a schema
type Resolver struct {
	elicitor Elicitor
	logger   *zap.Logger
}

// New creates a resolver. A nil elicitor resolves defaults only.
func New(elicitor Elicitor, logger *zap.Logger) *Resolver {
	if elicitor == nil {
		elicitor = defaultsOnly{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{elicitor: elicitor, logger: logger}
}

// Resolve visits sections and options in declaration order. A section is
// live when interactive is set and its condition holds; an option condition
// narrows liveness for that option alone. Every option gets a value, live or
// not. Any error aborts the walk and nothing partial is returned.
func (r *Resolver) Resolve(s *schema.Schema, interactive bool) (*interfaces.ResolvedConfig, error) {
	resolved := interfaces.NewResolvedConfig()

	for _, sec := range s.Sections() {
		active, err := schema.Evaluate(sec.Condition, resolved)
		if err != nil {
			return nil, errors.Wrapf(err, "section %s", sec.Name)
		}
		sectionLive := interactive && active
		bucket := resolved.AddSection(sec.Name)

		for _, opt := range sec.Options {
			live := sectionLive
			if live && len(opt.Condition) > 0 {
				holds, err := schema.Evaluate(opt.Condition, resolved)
				if err != nil {
					return nil, errors.Wrapf(err, "option %s.%s", sec.Name, opt.Name)
				}
				live = holds
			}

			def, err := schema.ResolveDefault(opt, resolved)
			if err != nil {
				return nil, errors.Wrapf(err, "option %s.%s", sec.Name, opt.Name)
			}

			value, err := r.elicitor.Elicit(opt, def, live)
			if err != nil {
				return nil, errors.Wrapf(err, "option %s.%s", sec.Name, opt.Name)
			}
			bucket.Set(opt.Name, value)
		}

		r.logger.Debug("section resolved",
			zap.String("section", sec.Name),
			zap.Bool("condition", active),
			zap.Bool("interactive", sectionLive))
	}

	return resolved, nil
}
