package vtable

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type shape interface {
	area() float64
}

type circle struct{ r float64 }

func (c *circle) area() float64 { return 3.14159 * c.r * c.r }

type square struct{ s float64 }

func (s *square) area() float64 { return s.s * s.s }

type triangle struct{ b, h float64 }

func (t *triangle) area() float64 { return t.b * t.h / 2 }

func TestFamilyTagsAreDenseAndInjective(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	tags := []Tag{
		f.TagOf(reflect.TypeOf(&circle{})),
		f.TagOf(reflect.TypeOf(&square{})),
		f.TagOf(reflect.TypeOf(&triangle{})),
	}
	seen := map[Tag]bool{}
	for i, tag := range tags {
		require.Equal(t, Tag(i+1), tag, "tags must be dense starting at 1")
		require.False(t, seen[tag], "tags must be pairwise distinct")
		seen[tag] = true
	}
}

func TestFamilyTagOfIsIdempotent(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	ct := reflect.TypeOf(&circle{})
	first := f.TagOf(ct)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, f.TagOf(ct))
	}
	require.Equal(t, 1, f.Len())
}

func TestFamilyBaseTagIsOrdinary(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	// The base interface tagged against itself is a normal allocation.
	bt := f.BaseTag()
	require.Equal(t, Tag(1), bt)
	require.Equal(t, bt, f.BaseTag())

	st := f.TagOf(reflect.TypeOf(&square{}))
	require.NotEqual(t, bt, st)
}

func TestFamilyTagForResolvesDynamicType(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	var s shape = &circle{r: 1}
	tag := f.TagFor(s)
	require.Equal(t, f.TagOf(reflect.TypeOf(&circle{})), tag)

	s = &square{s: 2}
	require.NotEqual(t, tag, f.TagFor(s))
}

func TestFamilyTagForNil(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	var s shape
	require.Equal(t, TagNone, f.TagFor(s))
}

func TestFamilyLookupDoesNotAllocate(t *testing.T) {
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)

	_, ok := f.Lookup(reflect.TypeOf(&circle{}))
	require.False(t, ok)
	require.Equal(t, 0, f.Len())

	tag := f.TagOf(reflect.TypeOf(&circle{}))
	got, ok := f.Lookup(reflect.TypeOf(&circle{}))
	require.True(t, ok)
	require.Equal(t, tag, got)
}

func TestNewFamilyRejectsConcreteBase(t *testing.T) {
	_, err := NewFamily[*circle]("not-a-family")
	require.ErrorIs(t, err, ErrInvalidFamily)
}
