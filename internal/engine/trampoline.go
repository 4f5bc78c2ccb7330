package engine

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/joeycumines/goja-sandbox/internal/convert"
	"github.com/joeycumines/goja-sandbox/lattice"
)

// Callback is the host dispatcher a session routes every registered tool
// call through: a method name, its already-marshalled arguments, and
// whatever userdata the facade associated with the tool object at
// registration time.
type Callback func(method string, args []lattice.Value, userdata any) (lattice.Value, error)

// makeTrampoline returns the single sandbox-side dispatcher for name: it
// marshals the call's arguments out to the lattice, invokes e.callback,
// and marshals the result back. Each registered name gets its own
// closure rather than sharing one native function that inspects the
// current call frame for its name — Goja gives us a distinct JS-visible
// binding per registration for free, so there is no need to recover the
// method name dynamically the way the reference design's single C
// trampoline must.
func (e *Engine) makeTrampoline(name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		rt := e.rt
		args := make([]lattice.Value, len(call.Arguments))
		for i, a := range call.Arguments {
			lv, err := convert.FromGoja(rt, a)
			if err != nil {
				var convErr *lattice.ConversionError
				typeName := "unknown"
				if ce, ok := err.(*lattice.ConversionError); ok {
					convErr = ce
					typeName = convErr.TypeName
				}
				panic(rt.NewTypeError(fmt.Sprintf("unsupported type for sandbox: %s", typeName)))
			}
			if err := e.tracker.Reserve(lattice.SizeOf(lv)); err != nil {
				panic(rt.NewGoError(err))
			}
			args[i] = lv
		}

		if e.callback == nil {
			panic(rt.NewGoError(fmt.Errorf("sandbox: no tool callback registered for %q", name)))
		}

		result, err := e.callback(name, args, e.userdata)
		if err != nil {
			panic(rt.NewGoError(err))
		}

		if err := e.tracker.Reserve(lattice.SizeOf(result)); err != nil {
			panic(rt.NewGoError(err))
		}

		return convert.ToGoja(rt, result)
	}
}
