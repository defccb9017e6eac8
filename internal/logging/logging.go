// Package logging is the three-level (info/warn/error) sink spec.md §6
// requires of the CLI collaborator, wrapping the standard library's log
// package the way cmd/distri's small command-local log helpers do.
package logging

import (
	"log"
	"os"
)

// Sink is an action-verb-plus-message logger. The zero value writes to
// os.Stderr via the standard logger.
type Sink struct {
	l *log.Logger
}

// New returns a Sink writing to os.Stderr with no timestamp prefix,
// matching distri's own log.SetFlags(0) convention in cmd/distri/distri.go.
func New() *Sink {
	return &Sink{l: log.New(os.Stderr, "", 0)}
}

func (s *Sink) logger() *log.Logger {
	if s.l == nil {
		return log.Default()
	}
	return s.l
}

// Info logs a routine action, e.g. Info("fetch", "cloning %s", url).
func (s *Sink) Info(verb, format string, args ...interface{}) {
	s.logger().Printf("["+verb+"] "+format, args...)
}

// Warn logs a non-fatal anomaly (spec.md §7: symlink fallback, banner
// parsing quirks).
func (s *Sink) Warn(verb, format string, args ...interface{}) {
	s.logger().Printf("warning: ["+verb+"] "+format, args...)
}

// Error logs a fatal condition the caller is about to surface as an error
// return; it does not itself abort the process.
func (s *Sink) Error(verb, format string, args ...interface{}) {
	s.logger().Printf("error: ["+verb+"] "+format, args...)
}
