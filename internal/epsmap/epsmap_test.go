package epsmap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/epsmap"
	"github.com/formalizer/fzcore/internal/idgen"
)

func nodeIDFor(t *testing.T, minor int) idgen.NodeID {
	t.Helper()
	id, err := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, minor)
	require.NoError(t, err)
	return id
}

func windowStart() time.Time {
	return time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
}

func TestReserveFillsForwardFromCursorAndAdvances(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a := nodeIDFor(t, 1)

	last := m.Reserve(a, 1)
	require.NotEqual(t, epsmap.Unspecified, last)
	assert.Equal(t, 30, m.SlotsPerChunk()*epsmap.SlotMinutes)
}

func TestReserveReturnsUnspecifiedWhenWindowExhausted(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a := nodeIDFor(t, 1)

	// One day holds 288 5-minute slots; ask for far more chunks than fit.
	last := m.Reserve(a, 1000)
	assert.Equal(t, epsmap.Unspecified, last)
}

func TestReserveSkipsOccupiedSlotsForSecondNode(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)

	firstLast := m.Reserve(a, 1)
	require.NotEqual(t, epsmap.Unspecified, firstLast)
	secondLast := m.Reserve(b, 1)
	require.NotEqual(t, epsmap.Unspecified, secondLast)
	assert.True(t, secondLast > firstLast)
}

func TestReserveExactFlagsOverlapButOverwrites(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)
	td := windowStart().Add(4 * time.Hour)

	m.ReserveExact(a, 1, td)
	assert.False(t, m.FlagsFor(a).Overlap)

	m.ReserveExact(b, 1, td)
	assert.True(t, m.FlagsFor(b).Overlap)
	assert.True(t, m.FlagsFor(b).Exact)
}

// TestReserveExactMatchesScenario1SlotTimes is spec §8 scenario 1: two
// exact-TD Nodes A (req 20 min, TD 14:00) and B (req 40 min, TD 14:30).
// A must land on [13:40,14:00); B must land on [13:50,14:30), overlapping
// A (and overwriting it) on [13:50,14:00).
func TestReserveExactMatchesScenario1SlotTimes(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 20)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)

	tdA := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)
	tdB := time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)

	m.ReserveExact(a, 1, tdA) // 20 min == 1 chunk of 20 min
	m.ReserveExact(b, 2, tdB) // 40 min == 2 chunks of 20 min

	assert.True(t, m.NodeAt(time.Date(2026, 7, 31, 13, 35, 0, 0, time.UTC)).IsNull())
	assert.Equal(t, a, m.NodeAt(time.Date(2026, 7, 31, 13, 40, 0, 0, time.UTC)))
	assert.Equal(t, a, m.NodeAt(time.Date(2026, 7, 31, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, b, m.NodeAt(time.Date(2026, 7, 31, 13, 50, 0, 0, time.UTC)))
	assert.Equal(t, b, m.NodeAt(time.Date(2026, 7, 31, 13, 55, 0, 0, time.UTC)))
	assert.Equal(t, b, m.NodeAt(time.Date(2026, 7, 31, 14, 25, 0, 0, time.UTC)))
	assert.True(t, m.NodeAt(time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)).IsNull())

	assert.False(t, m.FlagsFor(a).Overlap)
	assert.True(t, m.FlagsFor(b).Overlap)
}

// TestSlotsBeforeWindowStartAreNeverReserved is the spec §8 boundary
// behavior: "the first day of the EPS map marks all slots before
// t_start as unavailable; Nodes cannot be placed there." A fixed
// deadline early on day 0 must not be able to borrow pre-t_start slots
// to satisfy its requirement, and must be flagged Insufficient instead.
func TestSlotsBeforeWindowStartAreNeverReserved(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 20) // window starts 2026-07-31 08:00 UTC
	a := nodeIDFor(t, 1)

	td := time.Date(2026, 7, 31, 0, 10, 0, 0, time.UTC)
	m.ReserveFixed(a, 1, td) // 1 chunk == 20 minutes, entirely before t_start

	assert.True(t, m.FlagsFor(a).Insufficient)
	assert.True(t, m.NodeAt(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)).IsNull())
	assert.True(t, m.NodeAt(time.Date(2026, 7, 31, 0, 5, 0, 0, time.UTC)).IsNull())
}

func TestReserveFixedFlagsInsufficientWhenNotEnoughFreeSlotsBeforeWindowStart(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a := nodeIDFor(t, 1)

	// td right at the window start leaves almost no room to walk backward.
	m.ReserveFixed(a, 1000, windowStart())
	assert.True(t, m.FlagsFor(a).Insufficient)
	assert.True(t, m.FlagsFor(a).Fixed)
}

func TestReserveFixedSkipsAlreadyOccupiedSlots(t *testing.T) {
	m := epsmap.New(windowStart(), 1, 30)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)
	td := windowStart().Add(6 * time.Hour)

	m.ReserveFixed(a, 1, td)
	assert.False(t, m.FlagsFor(a).Insufficient)

	m.ReserveFixed(b, 1, td)
	assert.False(t, m.FlagsFor(b).Insufficient)
}

func TestEndOfDayAdjustSnapsForwardToBoundary(t *testing.T) {
	m := epsmap.New(windowStart(), 2, 30)
	tRaw := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	boundary := 22 * time.Hour

	adjusted := m.EndOfDayAdjust(tRaw, boundary, 18*time.Hour, false, 15)
	assert.Equal(t, 22, adjusted.Hour())
	assert.Equal(t, tRaw.Day(), adjusted.Day())
}

func TestEndOfDayAdjustRollsToNextDayWhenBoundaryAlreadyPassed(t *testing.T) {
	m := epsmap.New(windowStart(), 2, 30)
	tRaw := time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)
	boundary := 22 * time.Hour

	adjusted := m.EndOfDayAdjust(tRaw, boundary, 18*time.Hour, false, 15)
	assert.Equal(t, tRaw.AddDate(0, 0, 1).Day(), adjusted.Day())
}

func TestEndOfDayAdjustOffsetsOnCollisionWithPreviousGroup(t *testing.T) {
	m := epsmap.New(windowStart(), 2, 30)
	boundary := 22 * time.Hour
	tRaw := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	first := m.EndOfDayAdjust(tRaw, boundary, 18*time.Hour, false, 15)
	second := m.EndOfDayAdjust(tRaw, boundary, 18*time.Hour, false, 15)

	assert.Equal(t, first.Add(15*time.Minute), second)
}
