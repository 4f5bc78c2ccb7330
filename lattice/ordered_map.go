package lattice

// OrderedMap is an insertion-ordered mapping of Value to Value. Lookups by
// key use a linear scan against a string-rendered form of the key, which is
// adequate for the small, mostly string/int-keyed maps that cross the
// sandbox boundary; it keeps the type from requiring Go-comparable keys,
// since sequences and mappings may legally appear as map keys on the
// sandbox side.
type OrderedMap struct {
	keys   []Value
	vals   []Value
	index  map[string]int
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

func mapKeyToken(k Value) string {
	return k.kind.String() + ":" + k.Inspect()
}

// Set inserts or updates the value for k, preserving k's original
// insertion position on update.
func (m *OrderedMap) Set(k, v Value) {
	tok := mapKeyToken(k)
	if i, ok := m.index[tok]; ok {
		m.vals[i] = v
		return
	}
	m.index[tok] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Get returns the value for k and whether it was present.
func (m *OrderedMap) Get(k Value) (Value, bool) {
	i, ok := m.index[mapKeyToken(k)]
	if !ok {
		return Value{}, false
	}
	return m.vals[i], true
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Range visits entries in insertion order, stopping early if fn returns
// false.
func (m *OrderedMap) Range(fn func(k, v Value) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.vals[i]) {
			return
		}
	}
}

// Keys returns the entries' keys in insertion order.
func (m *OrderedMap) Keys() []Value {
	out := make([]Value, len(m.keys))
	copy(out, m.keys)
	return out
}
