// Package ui prints the user-facing report of a run.
//
// Report lines go to stdout and problems to stderr; structured logs are the
// logger's business and never pass through here.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	successMark = "✅"
	failureMark = "❌"
)

// Color functions for terminal output
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Red    = colorize("\033[31m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func plain(text string) string { return text }

// Console writes report lines. It is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	quiet  bool
	color  bool
}

// NewConsole creates a console writing reports to out and errors to errOut
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut, color: true}
}

// SetQuiet suppresses everything except errors
func (c *Console) SetQuiet(quiet bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quiet = quiet
}

// SetColor toggles ANSI colors
func (c *Console) SetColor(color bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = color
}

func (c *Console) paint(fn func(string) string) func(string) string {
	if !c.color {
		return plain
	}
	return fn
}

func (c *Console) report(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, format, args...)
}

// PrintFound reports how many photos the album page lists
func (c *Console) PrintFound(n int) {
	c.report("found %s images\n", c.paint(Cyan)(fmt.Sprint(n)))
}

// PrintSaved reports a photo written to path
func (c *Console) PrintSaved(path string) {
	c.report("%s saved: %s\n", successMark, c.paint(Green)(path))
}

// PrintFailed reports a photo that could not be processed
func (c *Console) PrintFailed(url string, err error) {
	c.report("%s failed %s: %s\n", failureMark, url, c.paint(Red)(fmt.Sprint(err)))
}

// PrintInfo prints a label and value pair
func (c *Console) PrintInfo(label string, value string) {
	c.report("%s: %s\n", c.paint(Cyan)(label), c.paint(Yellow)(value))
}

// PrintSummary prints the totals gathered by t
func (c *Console) PrintSummary(t *Tracker) {
	line := fmt.Sprintf("done: %d saved, %d failed in %s", t.Saved(), t.Failed(), t.Elapsed().Round(10*time.Millisecond))
	if t.Failed() > 0 {
		c.report("%s\n", c.paint(Yellow)(line))
		return
	}
	c.report("%s\n", c.paint(Green)(line))
}

// PrintError prints an error message in red. Quiet mode does not hide it.
func (c *Console) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, c.paint(Red)(msg))
}

// PrintSuccess prints a success message in green
func (c *Console) PrintSuccess(msg string) {
	c.report("%s\n", c.paint(Green)(msg))
}

var std = NewConsole(os.Stdout, os.Stderr)

// Default returns the console used by the package-level functions
func Default() *Console {
	return std
}

// PrintError prints an error message on the default console
func PrintError(msg string, args ...interface{}) {
	std.PrintError(msg, args...)
}

// PrintInfo prints a label and value on the default console
func PrintInfo(label string, value string) {
	std.PrintInfo(label, value)
}

// PrintSuccess prints a success message on the default console
func PrintSuccess(msg string) {
	std.PrintSuccess(msg)
}
