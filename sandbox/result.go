package sandbox

import (
	"strings"

	"github.com/joeycumines/goja-sandbox/internal/engine"
)

// ErrorKind classifies how an evaluation failed, if it did.
type ErrorKind int

const (
	// KindNone means the evaluation succeeded.
	KindNone ErrorKind = iota
	// KindRuntime covers syntax errors and ordinary sandbox exceptions,
	// including tool-callback errors and value-marshal failures.
	KindRuntime
	// KindTimeout means the configured wall-clock deadline fired during
	// execution.
	KindTimeout
	// KindMemoryLimit means the configured heap-bytes ceiling was
	// crossed.
	KindMemoryLimit
)

// Result carries everything one Eval call produced: the inspected
// return value (if any), whatever the script wrote via print/puts/p,
// and the classified error (if any).
type Result struct {
	// Value is the inspected (debug-form) rendering of the script's
	// final expression value. Empty when the evaluation failed.
	Value string
	// Output is everything the script wrote during this Eval call.
	// Unlike Value and locals, it does not persist across calls.
	Output string
	// Err is the error message, if the evaluation failed.
	Err string
	// Kind classifies Err, or KindNone on success.
	Kind ErrorKind
}

// IsError reports whether the evaluation failed in any way.
func (r Result) IsError() bool { return r.Kind != KindNone }

// String renders r the way an agent-facing tool call would: captured
// output first, then either "=> <value>" on success or "Error:
// <message>" on failure, so the caller sees a uniform shape regardless
// of outcome.
func (r Result) String() string {
	var sb strings.Builder
	sb.WriteString(r.Output)
	if r.IsError() {
		sb.WriteString("Error: ")
		sb.WriteString(r.Err)
	} else {
		sb.WriteString("=> ")
		sb.WriteString(r.Value)
	}
	return sb.String()
}

func fromEngineResult(r engine.Result) Result {
	return Result{
		Value:  r.Value,
		Output: r.Output,
		Err:    r.Err,
		Kind:   ErrorKind(r.Kind),
	}
}
