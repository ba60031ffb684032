package vtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestScope(t *testing.T, mode fallbackMode) *scope {
	t.Helper()
	f, err := NewFamily[shape]("shapes")
	require.NoError(t, err)
	return newScope(1, "ctx", "int", f, mode)
}

func TestScopeInstallGrowsBothStructures(t *testing.T) {
	s := newTestScope(t, fallbackLazy)
	e := bind(func(o *opOnCircle, c *circle) (int, error) { return 1, nil })
	s.install(5, e, &opOnCircle{})

	require.Len(t, s.table, 6)
	require.Len(t, s.registry, 6)
	require.Same(t, e, s.table[5])
	require.NotNil(t, s.registry[5])
	for i := 0; i < 5; i++ {
		require.Nil(t, s.table[i], "lazy growth pads with absent")
		require.Nil(t, s.registry[i])
	}
}

func TestScopeSnapshotGrowthCapturesBaseEntry(t *testing.T) {
	s := newTestScope(t, fallbackSnapshot)
	def := bind(func(o *opOnAny, v shape) (int, error) { return -1, nil })
	baseTag := s.family.BaseTag()
	s.install(baseTag, def, &opOnAny{})

	e := bind(func(o *opOnCircle, c *circle) (int, error) { return 1, nil })
	s.install(4, e, &opOnCircle{})

	for i := int(baseTag) + 1; i < 4; i++ {
		require.Same(t, def, s.table[i], "new slots capture the base entry at growth time")
		require.Nil(t, s.registry[i], "the registry never backfills")
	}
	require.Same(t, e, s.table[4])
}

func TestScopeSnapshotGrowthWithoutBaseCapturesAbsent(t *testing.T) {
	s := newTestScope(t, fallbackSnapshot)
	e := bind(func(o *opOnCircle, c *circle) (int, error) { return 1, nil })
	s.install(3, e, &opOnCircle{})

	for i := 0; i < 3; i++ {
		require.Nil(t, s.table[i])
	}
}

func TestScopeCheckCoherence(t *testing.T) {
	s := newTestScope(t, fallbackLazy)
	e := bind(func(o *opOnCircle, c *circle) (int, error) { return 1, nil })
	s.install(2, e, &opOnCircle{})
	require.NoError(t, s.checkCoherence(2))

	// A dangling registry slot is an internal contract violation.
	s.registry[2] = nil
	require.ErrorIs(t, s.checkCoherence(2), ErrIncoherentBinding)

	// So is an instance of the wrong operation type.
	s.registry[2] = &opOnSquare{}
	require.ErrorIs(t, s.checkCoherence(2), ErrIncoherentBinding)
}

func TestScopeResolveOutOfRangeWithoutAnyEntry(t *testing.T) {
	s := newTestScope(t, fallbackSnapshot)
	_, _, _, err := s.resolve(7)
	require.ErrorIs(t, err, ErrUnregisteredSubtype)

	lazy := newTestScope(t, fallbackLazy)
	_, _, _, err = lazy.resolve(7)
	require.ErrorIs(t, err, ErrUnregisteredSubtype)
}
