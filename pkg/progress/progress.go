// Package progress provides the small injectable logger used by the
// splitter, planner, and scanner for verbose/warning output. There is no
// global logger singleton; callers pass a Logger explicitly, defaulting to
// Discard.
package progress

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Logger is the narrow interface the core packages accept: an explicit
// Infof/Warnf pair instead of ad-hoc fmt.Printf calls scattered through the
// call stack.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// discard implements Logger as a no-op, the default for library callers
// that don't want console output.
type discard struct{}

func (discard) Infof(string, ...any) {}
func (discard) Warnf(string, ...any) {}

// Discard is the zero-cost default Logger.
var Discard Logger = discard{}

// Console is a color.Color-backed Logger, used by cmd/fragforge when
// --verbose is set.
type Console struct {
	Out     io.Writer
	info    *color.Color
	warn    *color.Color
}

// NewConsole builds a Console logger writing to out.
func NewConsole(out io.Writer) *Console {
	info := color.New(color.FgCyan)
	warn := color.New(color.FgYellow, color.Bold)
	info.EnableColor()
	warn.EnableColor()
	return &Console{Out: out, info: info, warn: warn}
}

func (c *Console) Infof(format string, args ...any) {
	c.info.Fprintln(c.Out, fmt.Sprintf(format, args...))
}

func (c *Console) Warnf(format string, args ...any) {
	c.warn.Fprintln(c.Out, "warning: "+fmt.Sprintf(format, args...))
}
