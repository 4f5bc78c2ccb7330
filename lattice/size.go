package lattice

// sizeHeader is the accounting overhead charged for every Value that
// crosses the boundary, mirroring the fixed header a tracking allocator
// prepends to every allocation it owns (see the allocator package). It
// keeps empty strings and empty containers from being charged zero bytes.
const sizeHeader = 16

// SizeOf estimates the number of bytes a Value occupies, recursively
// including nested sequences and mappings. It is charged against a
// session's memory tracker whenever a Value crosses the trampoline or is
// written to the output buffer, so that large strings or deeply nested
// structures returned from a tool callback count against the memory
// ceiling just as allocations made by the interpreter itself do.
func SizeOf(v Value) uint64 {
	total := uint64(sizeHeader)
	switch v.kind {
	case KindString:
		total += uint64(len(v.s))
	case KindSequence:
		for _, e := range v.seq {
			total += SizeOf(e)
		}
	case KindMapping:
		if v.m != nil {
			v.m.Range(func(k, val Value) bool {
				total += SizeOf(k) + SizeOf(val)
				return true
			})
		}
	}
	return total
}
