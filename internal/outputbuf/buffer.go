// Package outputbuf implements the session's captured stdout: a growable
// byte buffer fed by overridden print/puts/p primitives, reset at the
// start of every evaluation (not at session reset, since reset replaces
// the interpreter wholesale and a fresh Buffer is constructed with it).
package outputbuf

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/joeycumines/goja-sandbox/internal/alloctrack"
	"github.com/joeycumines/goja-sandbox/internal/jsinspect"
)

// Buffer is a growable, reset-able byte buffer.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// New returns an empty Buffer.
func New() *Buffer { return &Buffer{} }

// Reset truncates the buffer to zero length.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// String returns the accumulated captured output.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *Buffer) writeString(s string, tracker *alloctrack.Tracker) error {
	if tracker != nil {
		if err := tracker.Reserve(uint64(len(s))); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.buf.WriteString(s)
	return err
}

// Install replaces print, puts and p in rt's global namespace with
// versions that append to buf instead of writing to the host's real
// stdout. Every byte written is charged against tracker, so that a
// script which tries to exhaust memory by looping on puts with a huge
// string is stopped by the memory ceiling just as an in-VM allocation
// would be.
func Install(rt *goja.Runtime, buf *Buffer, tracker *alloctrack.Tracker) error {
	if err := rt.Set("print", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			if err := buf.writeString(toDisplayString(arg), tracker); err != nil {
				panic(rt.NewGoError(err))
			}
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := rt.Set("puts", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			if err := buf.writeString("\n", tracker); err != nil {
				panic(rt.NewGoError(err))
			}
			return goja.Undefined()
		}
		for _, arg := range call.Arguments {
			putsOne(rt, buf, tracker, arg)
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := rt.Set("p", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			line := jsinspect.Value(rt, arg) + "\n"
			if err := buf.writeString(line, tracker); err != nil {
				panic(rt.NewGoError(err))
			}
		}
		switch len(call.Arguments) {
		case 0:
			return goja.Undefined()
		case 1:
			return call.Arguments[0]
		default:
			vals := make([]interface{}, len(call.Arguments))
			for i, a := range call.Arguments {
				vals[i] = a
			}
			return rt.ToValue(vals)
		}
	}); err != nil {
		return err
	}

	return nil
}

// putsOne writes a single puts argument, expanding arrays element-wise
// per the design's documented semantics.
func putsOne(rt *goja.Runtime, buf *Buffer, tracker *alloctrack.Tracker, arg goja.Value) {
	if obj, ok := arg.(*goja.Object); ok && obj.ClassName() == "Array" {
		length := int(obj.Get("length").ToInteger())
		if length == 0 {
			if err := buf.writeString("\n", tracker); err != nil {
				panic(rt.NewGoError(err))
			}
			return
		}
		for i := 0; i < length; i++ {
			putsOne(rt, buf, tracker, obj.Get(fmt.Sprintf("%d", i)))
		}
		return
	}
	s := toDisplayString(arg)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if err := buf.writeString(s, tracker); err != nil {
		panic(rt.NewGoError(err))
	}
}

func toDisplayString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
