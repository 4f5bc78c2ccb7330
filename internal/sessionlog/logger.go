// Package sessionlog provides the structured logger every Session uses
// to record its lifecycle and evaluation outcomes: created, reset,
// closed, and each eval's duration and error classification. It wraps
// github.com/joeycumines/logiface with the zerolog backend
// (github.com/joeycumines/izerolog over github.com/rs/zerolog), matching
// the logging stack used throughout the reference corpus.
package sessionlog

import (
	"io"
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// New returns a logger writing structured JSON lines to w (os.Stderr if
// w is nil) at the given level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	return izerolog.L.New(
		izerolog.WithZerolog(zl),
		izerolog.L.WithLevel(level),
	).Logger()
}

// Discard returns a logger that drops everything; used when the caller
// hasn't configured a logger and doesn't want Session chatter by
// default.
func Discard() *logiface.Logger[logiface.Event] {
	return New(io.Discard, logiface.LevelEmergency)
}
