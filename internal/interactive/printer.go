package interactive

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer writes coloured, human-readable lines for the operator
type Printer struct {
	out io.Writer
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

var (
	errorColor      = color.New(color.FgRed)
	successColor    = color.New(color.FgGreen)
	warningColor    = color.New(color.FgYellow)
	infoColor       = color.New(color.FgBlue)
	validationColor = color.New(color.FgMagenta)
)

func (p *Printer) line(c *color.Color, format string, args ...interface{}) {
	c.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Error prints a red line
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(errorColor, format, args...)
}

// Success prints a green line
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(successColor, format, args...)
}

// Warning prints a yellow line
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(warningColor, format, args...)
}

// Info prints a blue line
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(infoColor, format, args...)
}

// Validation prints a magenta line, used for rejected answers
func (p *Printer) Validation(format string, args ...interface{}) {
	p.line(validationColor, format, args...)
}

// Plain prints an uncoloured line
func (p *Printer) Plain(format string, args ...interface{}) {
	fmt.Fprintln(p.out, fmt.Sprintf(format, args...))
}
