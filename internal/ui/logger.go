package ui

import (
	"fmt"
	"io"
)

// Logger writes progress lines to stderr. Steps and successes only appear in
// verbose mode; warnings and failures always do.
type Logger struct {
	w       io.Writer
	verbose bool
}

// NewLogger creates a new progress logger
func NewLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{w: w, verbose: verbose}
}

// Verbose reports whether step output is enabled
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Step announces work in progress
func (l *Logger) Step(format string, args ...any) {
	if l.verbose {
		_, _ = fmt.Fprintf(l.w, "⚙️  "+format+"\n", args...)
	}
}

// Done reports a finished step
func (l *Logger) Done(format string, args ...any) {
	if l.verbose {
		_, _ = fmt.Fprintf(l.w, "✓ "+format+"\n", args...)
	}
}

// Warn reports a recoverable problem
func (l *Logger) Warn(format string, args ...any) {
	_, _ = fmt.Fprintf(l.w, "Warning: "+format+"\n", args...)
}

// Fail reports a failed item
func (l *Logger) Fail(format string, args ...any) {
	_, _ = fmt.Fprintf(l.w, "✗ "+format+"\n", args...)
}
