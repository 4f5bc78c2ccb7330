// Package engine implements the session core: the piece that owns the
// interpreter handle, arms and disarms resource enforcement around each
// evaluation, and classifies whatever comes out the other side into a
// Result. It is the Go-native replacement for the host-language binding
// glue the design treats as an external collaborator — since there's no
// separate host language here, the marshal lattice is already the
// Go-facing value type, and there is nothing further to bind.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/joeycumines/logiface"

	"github.com/joeycumines/goja-sandbox/internal/alloctrack"
	"github.com/joeycumines/goja-sandbox/internal/deadline"
	"github.com/joeycumines/goja-sandbox/internal/jsinspect"
	"github.com/joeycumines/goja-sandbox/internal/outputbuf"
	"github.com/joeycumines/goja-sandbox/internal/registry"
	"github.com/joeycumines/goja-sandbox/internal/sessionlog"
)

// interruptReason distinguishes why the watchdog interrupted a running
// script, recovered from goja.InterruptedError.Value after RunProgram
// returns.
type interruptReason int

const (
	reasonTimeout interruptReason = iota + 1
	reasonMemory
)

// watchdogInterval is the poll stride for the deadline/memory watchdog.
// The reference design samples every 1024 bytecode instructions from
// inside the interpreter loop; Goja offers no such hook, so this polls
// wall-clock time instead, at a stride small enough that a 0.5s timeout
// still fires within tens of milliseconds of its deadline.
const watchdogInterval = 2 * time.Millisecond

// Limits configures the resource ceilings a session enforces. A zero
// Timeout or MemoryLimit means unlimited, matching the design's nil
// convention at the Go boundary.
type Limits struct {
	Timeout     time.Duration
	MemoryLimit uint64
}

// Engine is the session core. It is not safe for concurrent Eval calls —
// by design, only one evaluation is ever in flight on a given session —
// but Close/IsClosed may be called from any goroutine.
type Engine struct {
	mu     sync.Mutex
	closed bool

	rt     *goja.Runtime
	output *outputbuf.Buffer

	tracker     *alloctrack.Tracker
	deadlineMon *deadline.Monitor
	reg         *registry.Registry

	limits   Limits
	callback Callback
	userdata any

	logger     *logiface.Logger[logiface.Event]
	lineOffset int
	id         string
}

// New constructs a session core with a live interpreter. Timeout and
// MemoryLimit of zero in limits mean unlimited. A nil logger discards
// all lifecycle/eval logging.
func New(limits Limits, logger *logiface.Logger[logiface.Event]) (*Engine, error) {
	if logger == nil {
		logger = sessionlog.Discard()
	}
	e := &Engine{
		tracker:     alloctrack.New(),
		deadlineMon: deadline.New(),
		reg:         registry.New(),
		limits:      limits,
		logger:      logger,
		id:          uuid.NewString(),
	}
	if err := e.buildRuntime(); err != nil {
		return nil, err
	}
	e.logger.Info().Str("session", e.id).Log("sandbox session created")
	return e, nil
}

// buildRuntime creates a fresh interpreter, installs the print/puts/p
// output overrides, binds the sandbox-visible last-result name to unit,
// and replays every name in the registry as a trampoline stub. It is
// used by both New and Reset.
func (e *Engine) buildRuntime() error {
	rt := goja.New()
	buf := outputbuf.New()

	// Tracker stays armed-but-unlimited outside an eval's enforcement
	// window, so every allocation this package charges bears a size
	// header from the outset, mirroring the reference design's
	// re-entrant allocator activation during init.
	e.tracker.Arm(0)
	e.tracker.Reset()

	if err := outputbuf.Install(rt, buf, e.tracker); err != nil {
		return fmt.Errorf("engine: installing output overrides: %w", err)
	}
	if err := rt.Set("_", goja.Undefined()); err != nil {
		return fmt.Errorf("engine: binding last-result name: %w", err)
	}

	e.rt = rt
	e.output = buf

	for _, name := range e.reg.Names() {
		if err := rt.Set(name, e.makeTrampoline(name)); err != nil {
			return fmt.Errorf("engine: re-registering tool %q: %w", name, err)
		}
	}

	e.lineOffset = 0
	return nil
}

// SetCallback installs the host dispatcher used by every registered
// tool's trampoline.
func (e *Engine) SetCallback(cb Callback, userdata any) error {
	if e.IsClosed() {
		return ErrClosedSession
	}
	e.callback = cb
	e.userdata = userdata
	return nil
}

// DefineFunction adds name to the set of sandbox-visible tool functions,
// persisting it across future resets, and installs its trampoline on the
// current interpreter. It fails with registry.ErrTooManyFunctions once
// the 64-entry cap is reached.
func (e *Engine) DefineFunction(name string) error {
	if e.IsClosed() {
		return ErrClosedSession
	}
	if err := e.reg.Add(name); err != nil {
		return err
	}
	return e.rt.Set(name, e.makeTrampoline(name))
}

// Eval runs code against the persistent interpreter, arming resource
// enforcement around the run and classifying the outcome. It never
// propagates a sandbox-originating failure as a Go error: those are
// always carried in the returned Result. The returned error is non-nil
// only for session-lifecycle problems (the session is closed).
func (e *Engine) Eval(code string) (Result, error) {
	if e.IsClosed() {
		return Result{}, ErrClosedSession
	}

	e.output.Reset()

	e.tracker.Reset()
	e.tracker.Arm(e.limits.MemoryLimit)
	e.deadlineMon.Arm(e.limits.Timeout)

	done := make(chan struct{})
	watching := e.limits.Timeout > 0 || e.limits.MemoryLimit > 0
	if watching {
		go e.watchdog(done)
	}

	start := time.Now()

	prog, compileErr := goja.Compile("sandbox-eval", code, false)

	if compileErr != nil {
		close(done)
		e.tracker.Disarm()
		e.deadlineMon.Disarm()
		msg := formatSyntaxError(compileErr, e.lineOffset)
		e.lineOffset += countLines(code)
		out := e.output.String()
		e.logEval(start, KindRuntime)
		return Result{Output: out, Err: msg, Kind: KindRuntime}, nil
	}

	val, runErr := e.rt.RunProgram(prog)

	close(done)
	e.tracker.Disarm()
	e.deadlineMon.Disarm()
	e.lineOffset += countLines(code)

	out := e.output.String()

	if runErr != nil {
		kind := e.classifyRunError(runErr)
		msg := runErr.Error()
		if kind == KindTimeout {
			msg = "execution timeout exceeded"
		}
		e.logEval(start, kind)
		return Result{Output: out, Err: msg, Kind: kind}, nil
	}

	inspected := jsinspect.Value(e.rt, val)
	if inspected == "" {
		inspected = "(unprintable)"
	}
	if err := e.tracker.Reserve(uint64(len(inspected))); err != nil {
		e.logEval(start, KindMemoryLimit)
		return Result{Output: out, Err: alloctrack.ErrMemoryLimit.Error(), Kind: KindMemoryLimit}, nil
	}
	_ = e.rt.Set("_", inspected)

	e.logEval(start, KindNone)
	return Result{Value: inspected, Output: out, Kind: KindNone}, nil
}

// classifyRunError turns whatever RunProgram returned into an
// ErrorKind, per the rule in the design: timeout if the deadline
// expired, memory-limit if the tracker's exceeded flag is set,
// otherwise runtime.
func (e *Engine) classifyRunError(runErr error) ErrorKind {
	var ie *goja.InterruptedError
	if errors.As(runErr, &ie) {
		if reason, ok := ie.Value.(interruptReason); ok {
			switch reason {
			case reasonTimeout:
				e.deadlineMon.MarkExpired()
				return KindTimeout
			case reasonMemory:
				return KindMemoryLimit
			}
		}
	}
	if e.deadlineMon.Expired() {
		return KindTimeout
	}
	if e.tracker.Exceeded() {
		return KindMemoryLimit
	}
	return KindRuntime
}

// watchdog polls the deadline monitor and the memory tracker on a fixed
// stride, interrupting the running script the moment either ceiling is
// crossed. It exits as soon as Eval signals done, or after it fires.
func (e *Engine) watchdog(done <-chan struct{}) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if e.deadlineMon.Armed() && e.deadlineMon.Due() {
				e.deadlineMon.MarkExpired()
				e.rt.Interrupt(reasonTimeout)
				return
			}
			if e.limits.MemoryLimit > 0 && e.tracker.SampleHeap() {
				e.rt.Interrupt(reasonMemory)
				return
			}
		}
	}
}

// Reset tears down the interpreter and rebuilds it in place, preserving
// limits, the callback, and the registered tool names; the stack-keep
// counter (goja's persistent global scope, in this reimplementation) and
// the last-result binding both start fresh.
func (e *Engine) Reset() error {
	if e.IsClosed() {
		return ErrClosedSession
	}
	if err := e.buildRuntime(); err != nil {
		return err
	}
	e.logger.Info().Str("session", e.id).Log("sandbox session reset")
	return nil
}

// Close releases the interpreter and output buffer and flips the closed
// flag. It is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.rt = nil
	e.output = nil
	e.logger.Info().Str("session", e.id).Log("sandbox session closed")
	return nil
}

// IsClosed reports whether Close has been called.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) logEval(start time.Time, kind ErrorKind) {
	base := e.logger.Info().
		Str("session", e.id).
		Dur("elapsed", time.Since(start))
	switch kind {
	case KindTimeout:
		base.Str("result", "timeout").Log("eval timed out")
	case KindMemoryLimit:
		base.Str("result", "memory_limit").Log("eval exceeded memory limit")
	case KindRuntime:
		base.Str("result", "error").Log("eval raised a sandbox error")
	default:
		base.Str("result", "ok").Log("eval completed")
	}
}

func formatSyntaxError(err error, lineOffset int) string {
	msg := err.Error()
	if !strings.HasPrefix(msg, "SyntaxError") {
		msg = "SyntaxError: " + msg
	}
	if lineOffset > 0 {
		msg = fmt.Sprintf("%s (snippet offset: line %d)", msg, lineOffset)
	}
	return msg
}

func countLines(code string) int {
	return strings.Count(code, "\n") + 1
}
