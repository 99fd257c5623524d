// Package console writes the plain-text progress and error lines shown to
// the person running a build. Structured diagnostics go through slog instead.
package console

import (
	"fmt"
	"io"
	"os"
)

// Console pairs the output channel with the error channel.
type Console struct {
	Out io.Writer
	Err io.Writer
}

// Std returns a console bound to the process stdout and stderr.
func Std() *Console {
	return &Console{Out: os.Stdout, Err: os.Stderr}
}

// New returns a console writing to out and errOut; nil writers discard.
func New(out, errOut io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Console{Out: out, Err: errOut}
}

// Discard returns a console that drops everything.
func Discard() *Console { return New(nil, nil) }

// Printf writes one progress line to the output channel.
func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.Out, format+"\n", args...)
}

// Errorf writes one line prefixed with "Error: " to the error channel.
func (c *Console) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.Err, "Error: "+format+"\n", args...)
}
