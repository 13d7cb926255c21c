// Package epsmap implements the EPS (Earliest Possible Slot) map: a
// dense grid of 5-minute slots spanning a configured horizon, used by
// the fzupdate three-pass scheduler to reserve contiguous runs of slots
// for Nodes. Grounded on the reference implementation's
// core/fzupdate/epsmap.{hpp,cpp} (EPS_map / EPS_map_day).
package epsmap

import (
	"time"

	"github.com/formalizer/fzcore/internal/idgen"
)

// SlotMinutes is the resolution of a single EPS slot.
const SlotMinutes = 5

// Unspecified is the sentinel epoch value returned when a reservation
// cannot be satisfied within the window (spec §4.E, "reserve... returns
// the epoch time of the last slot filled, or the sentinel unspecified").
const Unspecified int64 = -1

// Flags records the per-reservation classification bits the reference
// implementation packs into a bitmask (eps_mask); here represented as a
// typed struct of named booleans instead, per the design note preferring
// sum types/typed flag sets over bitmasks.
type Flags struct {
	Overlap              bool
	Insufficient         bool
	TreatGroupable       bool
	Exact                bool
	Fixed                bool
	EPSGroupMember       bool
	PeriodicLessThanYear bool
}

// Map is the EPS grid. Each of the num_days*288 five-minute slots holds
// either the zero NodeID (free) or the Node reserving it.
type Map struct {
	startTime time.Time // window start, t_start
	firstSlot time.Time // first 5-minute boundary strictly after t_start
	numDays   int
	slots     []idgen.NodeID // len == numDays*288, chronological
	nextSlot  int            // cursor for Reserve's forward walk
	floorIdx  int            // slot index of firstSlot; slots before this are before t_start and unavailable

	flags map[idgen.NodeID]*Flags

	chunkMinutes int

	previousGroupTD int64 // end_of_day_adjust collision tracking
}

// slotsPerDay is the number of 5-minute slots in a calendar day.
const slotsPerDay = 24 * 60 / SlotMinutes

// New constructs an EPS map spanning numDays days starting at startTime,
// with the given chunk size in minutes (spec §4.E derived constants).
func New(startTime time.Time, numDays, chunkMinutes int) *Map {
	m := &Map{
		startTime:       startTime,
		numDays:         numDays,
		slots:           make([]idgen.NodeID, numDays*slotsPerDay),
		flags:           make(map[idgen.NodeID]*Flags),
		chunkMinutes:    chunkMinutes,
		previousGroupTD: -1,
	}
	m.firstSlot = firstSlotAfter(startTime)
	m.nextSlot = m.slotIndex(m.firstSlot)
	if m.nextSlot < 0 {
		m.nextSlot = 0
	}
	m.floorIdx = m.nextSlot
	return m
}

func firstSlotAfter(t time.Time) time.Time {
	floor := t.Truncate(SlotMinutes * time.Minute)
	if !floor.After(t) {
		floor = floor.Add(SlotMinutes * time.Minute)
	}
	return floor
}

// SlotsPerChunk is chunk_minutes / 5 (spec §4.E derived constant).
func (m *Map) SlotsPerChunk() int {
	return m.chunkMinutes / SlotMinutes
}

// TBeyond is day_start(t_start) + numDays*86400, the end of the window.
func (m *Map) TBeyond() time.Time {
	dayStart := time.Date(m.startTime.Year(), m.startTime.Month(), m.startTime.Day(), 0, 0, 0, 0, m.startTime.Location())
	return dayStart.AddDate(0, 0, m.numDays)
}

// slotIndex returns the index of the slot containing t, or -1 if t is
// outside the window.
func (m *Map) slotIndex(t time.Time) int {
	dayStart := time.Date(m.startTime.Year(), m.startTime.Month(), m.startTime.Day(), 0, 0, 0, 0, m.startTime.Location())
	delta := t.Sub(dayStart)
	if delta < 0 {
		return -1
	}
	idx := int(delta / (SlotMinutes * time.Minute))
	if idx >= len(m.slots) {
		return -1
	}
	return idx
}

// slotTime returns the start time of slot idx.
func (m *Map) slotTime(idx int) time.Time {
	dayStart := time.Date(m.startTime.Year(), m.startTime.Month(), m.startTime.Day(), 0, 0, 0, 0, m.startTime.Location())
	return dayStart.Add(time.Duration(idx) * SlotMinutes * time.Minute)
}

// slotEndTime returns the end time of slot idx (slotTime(idx) + 5min),
// the time a reservation ending in this slot is considered to finish by.
func (m *Map) slotEndTime(idx int) time.Time {
	return m.slotTime(idx).Add(SlotMinutes * time.Minute)
}

// NodeAt returns the Node occupying the slot containing t, or the null
// NodeID if that slot is free, before firstSlot (t_start), or outside
// the window entirely.
func (m *Map) NodeAt(t time.Time) idgen.NodeID {
	idx := m.slotIndex(t)
	if idx < 0 || idx < m.floorIdx {
		return idgen.NullNodeID
	}
	return m.slots[idx]
}

// FlagsFor returns the Flags recorded for node, creating an empty set on
// first access.
func (m *Map) FlagsFor(node idgen.NodeID) *Flags {
	f, ok := m.flags[node]
	if !ok {
		f = &Flags{}
		m.flags[node] = f
	}
	return f
}
