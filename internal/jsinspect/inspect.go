// Package jsinspect renders a [goja.Value] as a debug string, the role the
// design calls the interpreter's "inspect form": the canonical
// object-to-string representation used for the sandbox-visible
// last-result binding, for the `p` output primitive, and for formatting
// interpreter exceptions into a Result's error message.
//
// No library in the reference corpus implements this exact contract
// (Goja's own fmt.Stringer on Value prints numbers and strings but does
// not quote strings or recurse into containers the way Ruby's #inspect
// or Node's util.inspect do), so this is a small, precisely-specified
// hand-rolled formatter rather than a wrapped dependency.
package jsinspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// Value renders val in inspect form. It never panics: values it cannot
// confidently format (functions, exotic host objects) degrade to a
// bracketed placeholder naming their class, matching the design's
// documented "(unprintable)" fallback philosophy for the cases that
// really can't be rendered at all.
func Value(rt *goja.Runtime, val goja.Value) string {
	var sb strings.Builder
	visit(rt, val, &sb, map[*goja.Object]bool{})
	return sb.String()
}

func visit(rt *goja.Runtime, val goja.Value, sb *strings.Builder, seen map[*goja.Object]bool) {
	if val == nil || goja.IsUndefined(val) {
		sb.WriteString("undefined")
		return
	}
	if goja.IsNull(val) {
		sb.WriteString("null")
		return
	}
	if sym, ok := val.(*goja.Symbol); ok {
		sb.WriteString(sym.String())
		return
	}

	exported := val.Export()
	switch v := exported.(type) {
	case bool:
		sb.WriteString(strconv.FormatBool(v))
		return
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
		return
	case float64:
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		return
	case string:
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(v, "'", "\\'"))
		sb.WriteByte('\'')
		return
	}

	obj, ok := val.(*goja.Object)
	if !ok {
		sb.WriteString(fmt.Sprintf("(unprintable: %T)", exported))
		return
	}
	if seen[obj] {
		sb.WriteString("[Circular]")
		return
	}

	switch obj.ClassName() {
	case "Function", "GoFunction":
		sb.WriteString("[Function]")
	case "Array":
		seen[obj] = true
		length := int(obj.Get("length").ToInteger())
		sb.WriteByte('[')
		for i := 0; i < length; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			visit(rt, obj.Get(fmt.Sprintf("%d", i)), sb, seen)
		}
		sb.WriteByte(']')
		delete(seen, obj)
	case "Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError":
		sb.WriteString(obj.String())
	default:
		seen[obj] = true
		keys := obj.Keys()
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			visit(rt, obj.Get(k), sb, seen)
		}
		sb.WriteByte('}')
		delete(seen, obj)
	}
}
