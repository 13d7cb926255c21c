package schedule

import "github.com/formalizer/fzcore/internal/idgen"

// mapFixedLate places every fixed-origin entry by walking backward from
// its latest allowed minute, repeatedly attempting a contiguous
// min_block_size (or smaller, for the remainder) block of empty minutes;
// on failure the candidate window steps back by one minute and retries
// (spec §4.G "Fixed").
func mapFixedLate(plan *Plan, entries []*entry, minBlockSize, passedMinutes int) {
	for _, e := range entries {
		if !includeInFixedStep(e) {
			continue
		}
		latest := minuteIndex(plan.Start, e.effectiveTD)
		filled := packBackward(plan, e.node.ID, latest, e.minutesNeeded, minBlockSize, passedMinutes)
		plan.FixedConsumed += filled
	}
}

// packBackward fills up to minutesNeeded minutes of node, never placing
// anything at or after endExclusive nor before floorMinute, by walking
// backward one candidate block at a time. It returns the number of
// minutes actually filled.
func packBackward(plan *Plan, node idgen.NodeID, endExclusive, minutesNeeded, blockSize, floorMinute int) int {
	remaining := minutesNeeded
	pos := endExclusive
	for remaining > 0 && pos > floorMinute {
		size := blockSize
		if size > remaining {
			size = remaining
		}
		blockStart := pos - size
		if blockStart < floorMinute {
			blockStart = floorMinute
			size = pos - blockStart
		}
		if size <= 0 {
			break
		}
		if allEmpty(plan, blockStart, size) {
			fillForward(plan, node, blockStart, size)
			remaining -= size
			pos = blockStart
		} else {
			pos--
		}
	}
	return minutesNeeded - remaining
}

func allEmpty(plan *Plan, start, n int) bool {
	if start < 0 || start+n > len(plan.Minutes) {
		return false
	}
	for i := start; i < start+n; i++ {
		if !plan.Minutes[i].IsNull() {
			return false
		}
	}
	return true
}
