package sandbox

import (
	"io"
	"time"

	"github.com/joeycumines/logiface"
)

// sessionOptions holds configuration resolved from a Session's Option
// arguments.
type sessionOptions struct {
	timeout     time.Duration
	memoryLimit uint64
	logWriter   io.Writer
	logLevel    logiface.Level
	tools       []toolBinding
}

// Option configures a Session at construction time.
type Option interface {
	applySession(*sessionOptions) error
}

// sessionOptionImpl implements Option.
type sessionOptionImpl struct {
	applyFunc func(*sessionOptions) error
}

func (o *sessionOptionImpl) applySession(opts *sessionOptions) error {
	return o.applyFunc(opts)
}

// WithTimeout bounds every Eval call's wall-clock execution time. A
// non-positive duration disables the ceiling (the default).
func WithTimeout(d time.Duration) Option {
	return &sessionOptionImpl{func(opts *sessionOptions) error {
		opts.timeout = d
		return nil
	}}
}

// WithMemoryLimit bounds the heap bytes a session's evaluations may
// allocate, charged at the value-marshalling boundary and sampled from
// Go's own heap growth while a script runs. Zero disables the ceiling
// (the default).
func WithMemoryLimit(bytes uint64) Option {
	return &sessionOptionImpl{func(opts *sessionOptions) error {
		opts.memoryLimit = bytes
		return nil
	}}
}

// WithTools registers a set of named tool functions the sandboxed script
// may call. See Expose for the call-site-friendly variant; WithTools is
// the constructor-time form, useful when every tool is known up front.
func WithTools(tools ...Tool) Option {
	return &sessionOptionImpl{func(opts *sessionOptions) error {
		for _, t := range tools {
			opts.tools = append(opts.tools, toolBinding{name: t.Name, fn: t.Func, userdata: t.Userdata})
		}
		return nil
	}}
}

// WithLogger directs a session's structured lifecycle and evaluation
// logging to w at the given level. The default discards all logging.
func WithLogger(w io.Writer, level logiface.Level) Option {
	return &sessionOptionImpl{func(opts *sessionOptions) error {
		opts.logWriter = w
		opts.logLevel = level
		return nil
	}}
}

func resolveSessionOptions(opts []Option) (*sessionOptions, error) {
	cfg := &sessionOptions{
		logLevel: logiface.LevelInformational,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySession(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
