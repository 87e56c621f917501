package hset

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// caseInsensitive makes every string of the same length collide, to
// exercise the buckets
type caseInsensitive struct{}

func (caseInsensitive) Hash(s string) uint32  { return uint32(len(s)) }
func (caseInsensitive) Equal(a, b string) bool { return strings.EqualFold(a, b) }

func TestOrdered(t *testing.T) {
	s := NewOrdered[string](caseInsensitive{}, "b", "A", "ab")

	assert.True(t, s.Add("c"))
	assert.False(t, s.Add("a"))
	assert.False(t, s.Add("AB"))
	assert.True(t, s.Contains("B"))
	assert.False(t, s.Contains("abc"))
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"b", "A", "ab", "c"}, slices.Collect(s.All()))
	assert.Equal(t, "ab", s.At(2))
}

func TestOrderedSliceIsACopy(t *testing.T) {
	s := NewOrdered[string](caseInsensitive{}, "a")
	copied := s.Slice()
	copied[0] = "z"

	assert.Equal(t, []string{"a"}, s.Slice())
}

func TestNilOrdered(t *testing.T) {
	var s *Ordered[string]

	assert.Zero(t, s.Len())
	assert.Nil(t, s.Slice())
	assert.Empty(t, slices.Collect(s.All()))
}
