// Package lattice defines the closed set of value shapes that may cross
// the sandbox boundary in either direction: host to sandbox, and sandbox
// back to host. It has no dependency on the embedded interpreter; the
// conversion packages that sit on either side of the boundary translate
// to and from this type.
package lattice

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	// KindUnit is the absence of a value (sandbox nil/undefined).
	KindUnit Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is an owned, recursive tagged value. The zero Value is Unit.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    []byte
	seq  []Value
	m    *OrderedMap
}

// Unit returns the unit value.
func Unit() Value { return Value{kind: KindUnit} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed 64-bit integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps an IEEE-754 double.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a byte string. UTF-8 is expected but never validated.
func String(s string) Value { return Value{kind: KindString, s: []byte(s)} }

// Bytes wraps a byte string from a raw byte slice; the slice is copied so
// the caller retains ownership of their own copy.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindString, s: cp}
}

// Sequence wraps an ordered list of values, preserving element order.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, seq: cp}
}

// Mapping wraps an OrderedMap, preserving insertion order of keys.
func Mapping(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return Value{kind: KindMapping, m: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUnit() bool { return v.kind == KindUnit }

// Bool returns the boolean payload; zero value if Kind is not KindBool.
func (v Value) AsBool() bool { return v.b }

// Int returns the int64 payload; zero value if Kind is not KindInt.
func (v Value) AsInt() int64 { return v.i }

// Float returns the float64 payload; zero value if Kind is not KindFloat.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the string payload; empty if Kind is not KindString.
func (v Value) AsString() string { return string(v.s) }

// AsBytes returns the raw byte payload; nil if Kind is not KindString.
func (v Value) AsBytes() []byte { return v.s }

// AsSequence returns the element slice; nil if Kind is not KindSequence.
func (v Value) AsSequence() []Value { return v.seq }

// AsMapping returns the underlying OrderedMap; nil if Kind is not KindMapping.
func (v Value) AsMapping() *OrderedMap { return v.m }

// Inspect renders a debug string representation of v, used both for the
// sandbox-visible last-result binding and for diagnostic output. It does
// not attempt to detect cycles; self-referential sequences or mappings
// will recurse until the call stack is exhausted, matching the documented
// lack of a cyclic-structure guarantee.
func (v Value) Inspect() string {
	var sb strings.Builder
	v.inspect(&sb)
	return sb.String()
}

func (v Value) inspect(sb *strings.Builder) {
	switch v.kind {
	case KindUnit:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(string(v.s), `"`, `\"`))
		sb.WriteByte('"')
	case KindSequence:
		sb.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.inspect(sb)
		}
		sb.WriteByte(']')
	case KindMapping:
		sb.WriteByte('{')
		first := true
		v.m.Range(func(k, val Value) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			k.inspect(sb)
			sb.WriteString(" => ")
			val.inspect(sb)
			return true
		})
		sb.WriteByte('}')
	default:
		sb.WriteString(fmt.Sprintf("#<unknown kind %d>", v.kind))
	}
}

// ConversionError reports a value on one side of the boundary that has no
// representation in the lattice. TypeName is populated by the converter
// that rejected the value, using whatever name its source type system
// gives it (e.g. a JS class name, a Go reflect.Type string).
type ConversionError struct {
	TypeName string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unsupported type for sandbox: %s", e.TypeName)
}
