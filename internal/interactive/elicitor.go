package interactive

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"mailstack-cli/internal/schema"
)

// ErrRestrictedValue is returned when the operator picks a value that may
// only be set by editing the configuration file.
var ErrRestrictedValue = errors.New("value cannot be set interactively")

// Elicit returns the value of opt. Options that are not customizable, or
// not live for this run, get defaultValue without a prompt. Otherwise the
// question is repeated until an empty answer (keep the default) or a valid
// one is typed.
func (p *Prompter) Elicit(opt schema.Option, defaultValue string, live bool) (string, error) {
	if !opt.Customizable || !live {
		return defaultValue, nil
	}

	for {
		p.ask(opt, defaultValue)
		answer, err := p.readLine()
		if err != nil {
			return "", errors.Wrapf(err, "option %s", opt.Name)
		}
		if answer == "" {
			return defaultValue, nil
		}

		if err := schema.Validate(answer, opt); err != nil {
			p.logger.Debug("answer rejected", zap.String("option", opt.Name), zap.Error(err))
			for _, msg := range schema.Messages(err) {
				p.printer.Validation("%s", msg)
			}
			continue
		}

		value := answer
		if len(opt.Values) > 0 {
			// already validated, the index is in range
			value, _ = schema.Choice(opt, answer)
		}

		if opt.IsNonInteractiveOnly(value) {
			p.printer.Error("%s cannot be set interactively. Please configure %s manually by running "+
				"'mailstack --stop-after-configfile-check <domain>'.", value, p.ConfigFile)
			return "", errors.WithHintf(
				errors.Wrapf(ErrRestrictedValue, "%s=%s", opt.Name, value),
				"run 'mailstack --stop-after-configfile-check <domain>', then set %s = %s in %s",
				opt.Name, value, p.ConfigFile)
		}
		return value, nil
	}
}

func (p *Prompter) ask(opt schema.Option, defaultValue string) {
	var question strings.Builder
	question.WriteString(opt.Question)
	if len(opt.Values) > 0 {
		question.WriteString(" from the list")
		for i, v := range opt.Values {
			fmt.Fprintf(&question, "\n%d   %s", i, v)
		}
	}
	fmt.Fprintln(p.out, question.String())
	fmt.Fprintf(p.out, "default is <%s>\n", defaultValue)
	fmt.Fprint(p.out, "-> ")
}
