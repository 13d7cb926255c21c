package epsmap

import (
	"time"

	"github.com/formalizer/fzcore/internal/idgen"
)

// ReserveExact reserves chunks slots ending at or just before td for
// node, walking backward. Occupied slots are flagged Overlap but are
// still overwritten: exact-TD Nodes are appointments and are allowed to
// legitimately collide (spec §4.E, and the §9 open question notes the
// reference treats this as a warning only — this reimplementation
// preserves that behavior rather than rejecting the overlap). The walk
// never extends before firstSlot (t_start); slots in [day-start,
// t_start) are outside the window and are never written (spec §8 "the
// first day of the EPS map marks all slots before t_start as
// unavailable").
func (m *Map) ReserveExact(node idgen.NodeID, chunks int, td time.Time) {
	idx := m.backwardStartIndex(td)
	flags := m.FlagsFor(node)
	flags.Exact = true
	remaining := chunks * m.SlotsPerChunk()
	for remaining > 0 && idx >= m.floorIdx {
		if !m.slots[idx].IsNull() && m.slots[idx] != node {
			flags.Overlap = true
		}
		m.slots[idx] = node
		remaining--
		idx--
	}
}

// ReserveFixed reserves chunks slots by walking backward from td,
// filling only free slots and skipping occupied ones. If fewer than the
// required slots are free before firstSlot (t_start), Insufficient is
// flagged and whatever could be reserved is kept.
func (m *Map) ReserveFixed(node idgen.NodeID, chunks int, td time.Time) {
	idx := m.backwardStartIndex(td)
	flags := m.FlagsFor(node)
	flags.Fixed = true
	remaining := chunks * m.SlotsPerChunk()
	for remaining > 0 && idx >= m.floorIdx {
		if m.slots[idx].IsNull() {
			m.slots[idx] = node
			remaining--
		}
		idx--
	}
	if remaining > 0 {
		flags.Insufficient = true
	}
}

// Reserve fills chunks slots forward from the map's next_slot cursor,
// skipping occupied slots, and advances the cursor past the last slot
// used. It returns the epoch time the last slot filled ends at, or
// Unspecified if the window was exhausted before chunks could be fully
// placed.
func (m *Map) Reserve(node idgen.NodeID, chunks int) int64 {
	remaining := chunks * m.SlotsPerChunk()
	idx := m.nextSlot
	last := -1
	for remaining > 0 && idx < len(m.slots) {
		if m.slots[idx].IsNull() {
			m.slots[idx] = node
			remaining--
			last = idx
		}
		idx++
	}
	m.nextSlot = idx
	if remaining > 0 {
		return Unspecified
	}
	return m.slotEndTime(last).Unix()
}

// backwardStartIndex returns the index of the slot that *ends* at or
// just before td — the reference's lower_bound over end-keyed slots
// (core/fzupdate/epsmap.cpp reserve_exact/reserve_fixed). A request
// ending at td=14:00 must start consuming from the slot [13:55,14:00),
// not [14:00,14:05). Returns -1 if td is at or before the start of the
// calendar day (no slot within the grid ends at or before it); returns
// len(slots)-1 if td is beyond the window's end. Callers additionally
// bound their backward walk at m.floorIdx, since slots before firstSlot
// (t_start) exist in the grid only to keep day-aligned indexing simple
// but must never be written to (spec §8).
func (m *Map) backwardStartIndex(td time.Time) int {
	dayStart := time.Date(m.startTime.Year(), m.startTime.Month(), m.startTime.Day(), 0, 0, 0, 0, m.startTime.Location())
	if !td.After(dayStart) {
		return -1
	}
	containing := int(td.Sub(dayStart) / (SlotMinutes * time.Minute))
	idx := containing - 1
	if idx < 0 {
		return -1
	}
	if idx >= len(m.slots) {
		return len(m.slots) - 1
	}
	return idx
}

// EndOfDayAdjust snaps t_raw forward to the next end-of-day boundary
// (dolaterEndOfDay, or doearlierEndOfDay for urgent Nodes — see spec §9
// open question: no Node field currently selects the earlier branch, so
// callers pass doearlier=false in the present implementation and the
// parameter exists for forward compatibility). If the adjusted time
// collides with the previous group's target date, it is offset forward
// by groupOffsetMinutes to preserve group ordering.
func (m *Map) EndOfDayAdjust(tRaw time.Time, dolaterEndOfDay, doearlierEndOfDay time.Duration, doearlier bool, groupOffsetMinutes int) time.Time {
	boundary := dolaterEndOfDay
	if doearlier {
		boundary = doearlierEndOfDay
	}
	dayStart := time.Date(tRaw.Year(), tRaw.Month(), tRaw.Day(), 0, 0, 0, 0, tRaw.Location())
	snapped := dayStart.Add(boundary)
	if snapped.Before(tRaw) {
		snapped = snapped.AddDate(0, 0, 1)
	}
	if m.previousGroupTD >= 0 && snapped.Unix() == m.previousGroupTD {
		snapped = snapped.Add(time.Duration(groupOffsetMinutes) * time.Minute)
	}
	m.previousGroupTD = snapped.Unix()
	return snapped
}
