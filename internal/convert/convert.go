// Package convert implements the bidirectional value-marshalling boundary
// between the host and the sandbox, translating between [goja.Value] and
// [lattice.Value]. This is the concrete binding glue the design leaves
// unimplemented for the embedded interpreter it names as a swappable
// dependency; here the interpreter is Goja, so this package is the thing
// that makes the lattice real on one specific side of the boundary.
package convert

import (
	"fmt"
	"math/big"

	"github.com/dop251/goja"

	"github.com/joeycumines/goja-sandbox/lattice"
)

// FromGoja converts a [goja.Value] produced by running sandbox code into
// a [lattice.Value]. Supported shapes: undefined/null, boolean, number
// (integer or float, including BigInt within int64 range), string,
// symbol (converted to a lattice string, per the design's documented
// coercion), array (sequence) and plain object (mapping, keys in
// declaration order). Anything else — functions, dates, regexps, maps,
// sets, errors, or other host-specific exotic objects — is rejected with
// a [lattice.ConversionError] naming the JS class.
func FromGoja(rt *goja.Runtime, val goja.Value) (lattice.Value, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return lattice.Unit(), nil
	}

	if sym, ok := val.(*goja.Symbol); ok {
		return lattice.String(sym.String()), nil
	}

	exported := val.Export()
	switch v := exported.(type) {
	case bool:
		return lattice.Bool(v), nil
	case int64:
		return lattice.Int(v), nil
	case float64:
		return lattice.Float(v), nil
	case string:
		return lattice.String(v), nil
	case *big.Int:
		// Outside the safe int64 range: truncate, as documented by the
		// lattice's fixed 64-bit integer variant.
		return lattice.Int(v.Int64()), nil
	}

	obj, ok := val.(*goja.Object)
	if !ok {
		return lattice.Value{}, &lattice.ConversionError{TypeName: fmt.Sprintf("%T", exported)}
	}

	switch obj.ClassName() {
	case "Array":
		return arrayFromGoja(rt, obj)
	case "Object":
		return objectFromGoja(rt, obj)
	default:
		return lattice.Value{}, &lattice.ConversionError{TypeName: obj.ClassName()}
	}
}

func arrayFromGoja(rt *goja.Runtime, obj *goja.Object) (lattice.Value, error) {
	length := int(obj.Get("length").ToInteger())
	items := make([]lattice.Value, length)
	for i := 0; i < length; i++ {
		elem := obj.Get(fmt.Sprintf("%d", i))
		lv, err := FromGoja(rt, elem)
		if err != nil {
			return lattice.Value{}, err
		}
		items[i] = lv
	}
	return lattice.Sequence(items...), nil
}

func objectFromGoja(rt *goja.Runtime, obj *goja.Object) (lattice.Value, error) {
	m := lattice.NewOrderedMap()
	for _, key := range obj.Keys() {
		lv, err := FromGoja(rt, obj.Get(key))
		if err != nil {
			return lattice.Value{}, err
		}
		m.Set(lattice.String(key), lv)
	}
	return lattice.Mapping(m), nil
}

// ToGoja converts a [lattice.Value] into a [goja.Value] bound to rt, for
// handing a tool callback's return value (or a registered function's
// arguments) back into running sandbox code.
func ToGoja(rt *goja.Runtime, v lattice.Value) goja.Value {
	switch v.Kind() {
	case lattice.KindUnit:
		return goja.Undefined()
	case lattice.KindBool:
		return rt.ToValue(v.AsBool())
	case lattice.KindInt:
		return rt.ToValue(v.AsInt())
	case lattice.KindFloat:
		return rt.ToValue(v.AsFloat())
	case lattice.KindString:
		return rt.ToValue(v.AsString())
	case lattice.KindSequence:
		items := v.AsSequence()
		vals := make([]interface{}, len(items))
		for i, e := range items {
			vals[i] = ToGoja(rt, e)
		}
		return rt.ToValue(vals)
	case lattice.KindMapping:
		out := rt.NewObject()
		v.AsMapping().Range(func(k, val lattice.Value) bool {
			_ = out.Set(keyString(k), ToGoja(rt, val))
			return true
		})
		return out
	default:
		return goja.Undefined()
	}
}

// keyString renders a lattice.Value as a JS object property name. Only
// string and int keys are expected in practice (mappings built from JS
// objects always have string keys); other kinds fall back to Inspect.
func keyString(k lattice.Value) string {
	switch k.Kind() {
	case lattice.KindString:
		return k.AsString()
	default:
		return k.Inspect()
	}
}
