// Package sandbox is the public facade over an isolated, resource-bounded
// JavaScript interpreter session: persistent locals across evaluations,
// host tool functions reachable through a marshalled value boundary, and
// enforced wall-clock and memory ceilings. See Session for the entry
// point.
package sandbox

import (
	"errors"
	"fmt"

	"github.com/joeycumines/goja-sandbox/internal/engine"
	"github.com/joeycumines/goja-sandbox/internal/registry"
)

// SandboxError is the base of every error this package returns for
// session-lifecycle and API-misuse failures. It is never returned for
// script-level failures — those are carried in Result, not as a Go
// error, since a failing script is an expected outcome of Eval rather
// than a fault in the host program.
type SandboxError struct {
	msg string
}

func (e *SandboxError) Error() string { return e.msg }

func newSandboxError(format string, args ...any) *SandboxError {
	return &SandboxError{msg: fmt.Sprintf(format, args...)}
}

// ClosedSessionError is returned by every Session method except Close and
// IsClosed once the session has been closed.
type ClosedSessionError struct{ *SandboxError }

// TooManyFunctionsError is returned by Expose/ExposeFunc once the
// registered tool-function cap (registry.MaxFunctions) is reached.
type TooManyFunctionsError struct{ *SandboxError }

// TimeoutError reports that a script exceeded its configured wall-clock
// budget. Eval returns it alongside a Result of KindTimeout: the
// resource-limit kinds are host-policy violations, not user-program
// errors, so they are raised rather than left for the caller to notice
// only by inspecting Result.
type TimeoutError struct{ *SandboxError }

// MemoryLimitError reports that a script exceeded its configured heap
// ceiling. See TimeoutError for why Eval raises this rather than
// reporting it through Result alone.
type MemoryLimitError struct{ *SandboxError }

func newClosedSessionError() error {
	return &ClosedSessionError{newSandboxError("sandbox: session is closed")}
}

func newTooManyFunctionsError() error {
	return &TooManyFunctionsError{newSandboxError("sandbox: too many registered functions (limit %d)", registry.MaxFunctions)}
}

func translateLifecycleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrClosedSession) {
		return newClosedSessionError()
	}
	if errors.Is(err, registry.ErrTooManyFunctions) {
		return newTooManyFunctionsError()
	}
	return err
}
