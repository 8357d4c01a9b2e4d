package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Prompter handles every question asked to the operator. Option answers and
// confirmations share one buffered reader so no typed-ahead input is lost.
type Prompter struct {
	in      io.Reader
	reader  *bufio.Reader
	out     io.Writer
	printer *Printer
	logger  *zap.Logger

	// ConfigFile is named in the remediation message for restricted values
	ConfigFile string
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer, logger *zap.Logger) *Prompter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prompter{
		in:         in,
		reader:     bufio.NewReader(in),
		out:        out,
		printer:    NewPrinter(out),
		logger:     logger,
		ConfigFile: "installer.cfg",
	}
}

// Printer returns the printer sharing the prompter's output
func (p *Prompter) Printer() *Printer {
	return p.printer
}

// Confirm asks a yes/no question. On a terminal the survey widget is used;
// otherwise a line is read, where an empty answer keeps the default.
func (p *Prompter) Confirm(message string, defaultValue bool) (bool, error) {
	if p.isTerminal() {
		prompt := &survey.Confirm{
			Message: message,
			Default: defaultValue,
		}
		var result bool
		if err := survey.AskOne(prompt, &result); err != nil {
			return false, errors.Wrap(err, "confirmation")
		}
		return result, nil
	}
	return p.fallbackYesNoSelection(message, defaultValue)
}

// fallbackYesNoSelection reads the answer as a line when no terminal is attached
func (p *Prompter) fallbackYesNoSelection(message string, defaultValue bool) (bool, error) {
	hint := "(y/N)"
	if defaultValue {
		hint = "(Y/n)"
	}
	fmt.Fprintf(p.out, "%s %s ", message, hint)

	input, err := p.readLine()
	if err != nil {
		return false, err
	}

	switch answer := strings.ToLower(input); {
	case strings.HasPrefix(answer, "y"):
		return true, nil
	case strings.HasPrefix(answer, "n"):
		return false, nil
	default:
		return defaultValue, nil
	}
}

// readLine returns one line without its terminator. A final line without a
// newline is accepted; end of input with nothing typed is an error.
func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errors.Wrap(io.ErrUnexpectedEOF, "input closed while waiting for an answer")
		}
		return "", errors.Wrap(err, "reading answer")
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) isTerminal() bool {
	f, ok := p.in.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
