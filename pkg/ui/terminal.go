// Package ui renders command line output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const Logo = `
  _           _              _
 (_)_ __  ___| |_ __ _ _ __ (_)
 | | '_ \/ __| __/ _' | '_ \| |
 | | | | \__ \ || (_| | |_) | |
 |_|_| |_|___/\__\__,_| .__/|_|
                      |_|
`

// Printer writes styled messages. Regular output goes to out, errors and
// warnings to errOut.
type Printer struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	renderer *lipgloss.Renderer
	quiet    bool

	cyan, yellow, red, green, magenta, dim lipgloss.Style
}

// NewPrinter creates a printer. The color profile is detected from out, so
// pipes and buffers get plain text.
func NewPrinter(out, errOut io.Writer) *Printer {
	p := &Printer{out: out, errOut: errOut, renderer: lipgloss.NewRenderer(out)}
	p.restyle()
	return p
}

func (p *Printer) restyle() {
	style := func(c string) lipgloss.Style {
		return p.renderer.NewStyle().Foreground(lipgloss.Color(c))
	}
	p.cyan = style("6")
	p.yellow = style("3")
	p.red = style("1")
	p.green = style("2")
	p.magenta = style("5")
	p.dim = p.renderer.NewStyle().Faint(true)
}

// SetNoColor disables ANSI styling.
func (p *Printer) SetNoColor() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer.SetColorProfile(termenv.Ascii)
	p.restyle()
}

// SetQuiet suppresses everything except errors.
func (p *Printer) SetQuiet(quiet bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quiet = quiet
}

func (p *Printer) print(w io.Writer, always bool, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiet && !always {
		return
	}
	fmt.Fprintf(w, format, args...)
}

func withDetail(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprint(args[0])
	}
	return msg
}

func (p *Printer) Logo() {
	p.print(p.out, false, "%s\n", p.cyan.Render(Logo))
}

// Error prints msg in red, followed by the first arg when given.
func (p *Printer) Error(msg string, args ...interface{}) {
	p.print(p.errOut, true, "%s\n", p.red.Render(withDetail(msg, args)))
}

func (p *Printer) Warning(msg string, args ...interface{}) {
	p.print(p.errOut, false, "%s\n", p.yellow.Render(withDetail(msg, args)))
}

func (p *Printer) Success(msg string) {
	p.print(p.out, false, "%s\n", p.green.Render(msg))
}

// Info prints a label/value pair.
func (p *Printer) Info(label, value string) {
	p.print(p.out, false, "%s: %s\n", p.cyan.Render(label), p.yellow.Render(value))
}

func (p *Printer) Highlight(msg string) {
	p.print(p.out, false, "%s\n", p.magenta.Render(msg))
}

// Row prints plain tabular output. Rows are data, so quiet mode keeps them.
func (p *Printer) Row(format string, args ...interface{}) {
	p.print(p.out, true, format+"\n", args...)
}

var std = NewPrinter(os.Stdout, os.Stderr)

// Default returns the printer behind the package level helpers.
func Default() *Printer { return std }

func SetQuietMode(quiet bool) { std.SetQuiet(quiet) }
func SetNoColor()             { std.SetNoColor() }

func PrintLogo()                                   { std.Logo() }
func PrintError(msg string, args ...interface{})   { std.Error(msg, args...) }
func PrintWarning(msg string, args ...interface{}) { std.Warning(msg, args...) }
func PrintSuccess(msg string)                      { std.Success(msg) }
func PrintInfo(label, value string)                { std.Info(label, value) }
func PrintHighlight(msg string)                    { std.Highlight(msg) }
