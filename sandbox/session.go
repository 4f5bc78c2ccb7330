package sandbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/goja-sandbox/internal/engine"
	"github.com/joeycumines/goja-sandbox/internal/sessionlog"
	"github.com/joeycumines/goja-sandbox/lattice"
)

// defaultTimeout and defaultMemoryLimit are the package-level fallbacks
// new sessions use when their Option arguments do not set a ceiling.
// Both start unlimited; SetDefaultTimeout and SetDefaultMemoryLimit
// adjust them process-wide.
var (
	defaultsMu         sync.Mutex
	defaultTimeout     time.Duration
	defaultMemoryLimit uint64
)

// Session is an isolated, persistent JavaScript evaluation context:
// locals, methods, and tool registrations survive across Eval calls
// until Reset or Close. A Session is not safe for concurrent use by
// multiple goroutines; serialize calls externally if needed.
type Session struct {
	mu          sync.Mutex
	eng         *engine.Engine
	tools       map[string]toolBinding
	timeout     time.Duration
	memoryLimit uint64
}

// New constructs a Session. Tools supplied via WithTools (or later added
// with Expose) are installed before the first Eval.
func New(opts ...Option) (*Session, error) {
	cfg, err := resolveSessionOptions(opts)
	if err != nil {
		return nil, err
	}

	timeout := cfg.timeout
	if timeout == 0 {
		timeout = currentDefaultTimeout()
	}
	memLimit := cfg.memoryLimit
	if memLimit == 0 {
		memLimit = currentDefaultMemoryLimit()
	}

	var logger = sessionlog.Discard()
	if cfg.logWriter != nil {
		logger = sessionlog.New(cfg.logWriter, cfg.logLevel)
	}

	eng, err := engine.New(engine.Limits{Timeout: timeout, MemoryLimit: memLimit}, logger)
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}

	s := &Session{
		eng:         eng,
		tools:       make(map[string]toolBinding),
		timeout:     timeout,
		memoryLimit: memLimit,
	}
	if err := eng.SetCallback(s.dispatch, nil); err != nil {
		return nil, translateLifecycleError(err)
	}

	for _, t := range cfg.tools {
		if err := s.addTool(t); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// addTool registers a tool binding against both the engine's name
// registry and the session's dispatch table.
func (s *Session) addTool(t toolBinding) error {
	if err := s.eng.DefineFunction(t.name); err != nil {
		return translateLifecycleError(err)
	}
	s.tools[t.name] = t
	return nil
}

// dispatch is the single Callback the engine routes every tool call
// through; it looks the method up in the session's binding table and
// invokes the matching ToolFunc.
func (s *Session) dispatch(method string, args []lattice.Value, _ any) (lattice.Value, error) {
	s.mu.Lock()
	t, ok := s.tools[method]
	s.mu.Unlock()
	if !ok {
		return lattice.Unit(), fmt.Errorf("sandbox: no tool registered for %q", method)
	}
	return t.fn(args, t.userdata)
}

// Expose registers a single named tool function, reachable from
// sandboxed script as a top-level call, and persists across Reset. It
// fails with a *TooManyFunctionsError once the 64-entry cap is reached.
func (s *Session) Expose(name string, fn ToolFunc) error {
	return s.ExposeWithUserdata(name, fn, nil)
}

// ExposeWithUserdata is Expose with an associated opaque value threaded
// through to every invocation of fn.
func (s *Session) ExposeWithUserdata(name string, fn ToolFunc, userdata any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTool(toolBinding{name: name, fn: fn, userdata: userdata})
}

// Eval runs code against the session's persistent interpreter. A syntax
// error or an uncaught script exception is reported through the
// returned Result, not as a Go error. The two resource-limit kinds are
// host-policy violations rather than user-program errors, so they are
// additionally raised here as typed errors (*TimeoutError,
// *MemoryLimitError) alongside the Result that documents them; the
// returned error is otherwise non-nil only when the session itself
// cannot accept the call (it is closed).
//
// Eval does not hold the session's tool-table lock for the duration of
// the call: a tool invoked from the running script re-enters dispatch
// on the same goroutine, and Go's Mutex is not re-entrant.
func (s *Session) Eval(code string) (Result, error) {
	res, err := s.eng.Eval(code)
	if err != nil {
		return Result{}, translateLifecycleError(err)
	}
	result := fromEngineResult(res)
	switch result.Kind {
	case KindTimeout:
		return result, &TimeoutError{newSandboxError("%s", result.Err)}
	case KindMemoryLimit:
		return result, &MemoryLimitError{newSandboxError("%s", result.Err)}
	default:
		return result, nil
	}
}

// Reset rebuilds the interpreter, clearing every local variable, method,
// and ivar while keeping registered tool names, the resource limits, and
// the dispatch table intact.
func (s *Session) Reset() error {
	return translateLifecycleError(s.eng.Reset())
}

// Close releases the interpreter. It is idempotent; calling Eval after
// Close returns a *ClosedSessionError.
func (s *Session) Close() error {
	return translateLifecycleError(s.eng.Close())
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	return s.eng.IsClosed()
}

// Timeout returns the effective wall-clock timeout for this session;
// zero means unlimited.
func (s *Session) Timeout() time.Duration { return s.timeout }

// MemoryLimit returns the effective heap-bytes ceiling for this session;
// zero means unlimited.
func (s *Session) MemoryLimit() uint64 { return s.memoryLimit }

// WithOpen constructs a Session, passes it to fn, and closes it
// afterward regardless of whether fn returns an error — a scoped helper
// for the common open/use/close shape.
func WithOpen(fn func(*Session) error, opts ...Option) error {
	s, err := New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// SetDefaultTimeout sets the process-wide default timeout new sessions
// use when their Option arguments don't specify one. Zero or negative
// restores the unlimited default.
func SetDefaultTimeout(d time.Duration) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	if d < 0 {
		d = 0
	}
	defaultTimeout = d
}

func currentDefaultTimeout() time.Duration {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	return defaultTimeout
}

// SetDefaultMemoryLimit sets the process-wide default memory limit (in
// bytes) new sessions use when their Option arguments don't specify one.
// Zero restores the unlimited default.
func SetDefaultMemoryLimit(bytes uint64) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultMemoryLimit = bytes
}

func currentDefaultMemoryLimit() uint64 {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	return defaultMemoryLimit
}
