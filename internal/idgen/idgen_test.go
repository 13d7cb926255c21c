package idgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/idgen"
)

func TestNodeIDStringRoundTrip(t *testing.T) {
	id, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 9, 30, 5, 2)
	require.NoError(t, err)
	require.Equal(t, "20260731093005.2", id.String())

	parsed, err := idgen.ParseNodeID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestNodeIDNullKey(t *testing.T) {
	require.True(t, idgen.NullNodeID.IsNull())
	require.Equal(t, idgen.NullKeyString, idgen.NullNodeID.String())

	parsed, err := idgen.ParseNodeID(idgen.NullKeyString)
	require.NoError(t, err)
	require.True(t, parsed.IsNull())
}

func TestNodeIDValidation(t *testing.T) {
	_, err := idgen.NewNodeIDFromCalendar(1990, 1, 1, 0, 0, 0, 1)
	assert.ErrorIs(t, err, idgen.ErrInvalidID)

	_, err = idgen.NewNodeIDFromCalendar(2026, 2, 30, 0, 0, 0, 1)
	assert.ErrorIs(t, err, idgen.ErrInvalidID)

	_, err = idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, 0)
	assert.ErrorIs(t, err, idgen.ErrInvalidID)
}

func TestNodeIDLess(t *testing.T) {
	earlier, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 9, 0, 0, 1)
	require.NoError(t, err)
	later, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 9, 0, 1, 1)
	require.NoError(t, err)
	assert.True(t, earlier.Less(later))
	assert.False(t, later.Less(earlier))
}

func TestEdgeIDStringRoundTrip(t *testing.T) {
	dep, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 9, 0, 0, 1)
	require.NoError(t, err)
	sup, err := idgen.NewNodeIDFromCalendar(2026, 8, 1, 9, 0, 0, 1)
	require.NoError(t, err)
	e := idgen.EdgeID{Dep: dep, Sup: sup}

	parsed, err := idgen.ParseEdgeID(e.String())
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
}

func TestEdgeIDOrdersBySupThenDep(t *testing.T) {
	n1, _ := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, 1)
	n2, _ := idgen.NewNodeIDFromCalendar(2026, 1, 2, 0, 0, 0, 1)
	n3, _ := idgen.NewNodeIDFromCalendar(2026, 1, 3, 0, 0, 0, 1)

	a := idgen.EdgeID{Dep: n1, Sup: n3}
	b := idgen.EdgeID{Dep: n2, Sup: n3}
	assert.True(t, a.Less(b))

	c := idgen.EdgeID{Dep: n3, Sup: n1}
	assert.True(t, c.Less(a))
}

func TestShortCodeBookAssignsStableAndDistinctCodes(t *testing.T) {
	book := idgen.NewShortCodeBook()
	a, _ := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, 1)
	b, _ := idgen.NewNodeIDFromCalendar(2026, 1, 2, 0, 0, 0, 1)

	codeA := book.Code(a)
	codeA2 := book.Code(a)
	codeB := book.Code(b)

	assert.Equal(t, codeA, codeA2)
	assert.NotEqual(t, codeA, codeB)

	book.Reset()
	assert.Equal(t, codeA, book.Code(a), "codes are assigned in first-use order so a reset codebook reassigns identically")
}
