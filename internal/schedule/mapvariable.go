package schedule

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/idgen"
)

// packForward fills up to minutesNeeded minutes of node starting no
// earlier than floorMinute, walking forward one candidate block at a
// time. It returns the number of minutes filled and the cursor position
// just past the last filled minute (or where the search left off).
func packForward(plan *Plan, node idgen.NodeID, minutesNeeded, blockSize, floorMinute int) (filled, cursor int) {
	remaining := minutesNeeded
	pos := floorMinute
	for remaining > 0 && pos < len(plan.Minutes) {
		size := blockSize
		if size > remaining {
			size = remaining
		}
		if pos+size > len(plan.Minutes) {
			size = len(plan.Minutes) - pos
		}
		if size <= 0 {
			break
		}
		if allEmpty(plan, pos, size) {
			fillForward(plan, node, pos, size)
			remaining -= size
			pos += size
		} else {
			pos++
		}
	}
	return minutesNeeded - remaining, pos
}

// mapVariableEarlyWithTopUp places every variable-origin entry by
// walking forward from now, and, if the configured horizon is not
// enough to place every Node's full remaining effort, extends the
// window in 15-day increments up to cfg.FetchDaysBeyondTLimit days
// (spec §4.G item 2). Because the in-memory Graph already holds every
// incomplete Node (unlike the reference implementation, which re-queries
// a persistent store per increment), "fetching more" here reduces to
// extending plan.Minutes; the externally observable behavior — the
// ladder, the cap, the forced placement past the cap with a warning —
// is preserved (see DESIGN.md).
func mapVariableEarlyWithTopUp(plan *Plan, entries []*entry, minBlockSize, passedMinutes int, cfg config.Scheduler) Outcome {
	const topUpIncrementDays = 15
	capDays := cfg.FetchDaysBeyondTLimit
	if capDays <= 0 {
		capDays = 150
	}

	var pending []*entry
	for _, e := range entries {
		if includeInVariableStep(e) {
			pending = append(pending, e)
		}
	}

	extendedDays := 0
	outcome := OK
	for _, e := range pending {
		filled, _ := packForward(plan, e.node.ID, e.minutesNeeded, minBlockSize, passedMinutes)
		plan.VariableConsumed += filled
		remaining := e.minutesNeeded - filled
		for remaining > 0 {
			if extendedDays >= capDays {
				// Forced placement past the cap: append exactly enough room
				// and fill unconditionally, with a warning, rather than
				// reporting insufficient_time forever. Later pending entries
				// still get their own attempt at the (now-extended) window.
				plan.Warnings = append(plan.Warnings, fmt.Sprintf(
					"node %s could not be placed within %d days; forcing placement past the horizon", e.node.ID, capDays))
				extra := make([]idgen.NodeID, remaining)
				startIdx := len(plan.Minutes)
				plan.Minutes = append(plan.Minutes, extra...)
				fillForward(plan, e.node.ID, startIdx, remaining)
				plan.VariableConsumed += remaining
				outcome = InsufficientTime
				remaining = 0
				break
			}
			grow := topUpIncrementDays * minutesPerDay
			plan.Minutes = append(plan.Minutes, make([]idgen.NodeID, grow)...)
			extendedDays += topUpIncrementDays
			more, _ := packForward(plan, e.node.ID, remaining, minBlockSize, len(plan.Minutes)-grow)
			plan.VariableConsumed += more
			remaining -= more
		}
	}
	return outcome
}

