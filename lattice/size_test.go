package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeOfGrowsWithContent(t *testing.T) {
	small := SizeOf(String("a"))
	large := SizeOf(String("a very much longer string than the other one"))
	assert.Less(t, small, large)
}

func TestSizeOfRecursesIntoSequence(t *testing.T) {
	empty := SizeOf(Sequence())
	withItems := SizeOf(Sequence(String("abcdefghij"), String("klmnopqrst")))
	assert.Greater(t, withItems, empty+uint64(15))
}

func TestSizeOfRecursesIntoMapping(t *testing.T) {
	m := NewOrderedMap()
	m.Set(String("key"), String("a reasonably long value string"))
	assert.Greater(t, SizeOf(Mapping(m)), uint64(30))
}
