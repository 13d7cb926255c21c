package schedule

import (
	"time"

	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// mapExact places every exact-origin entry's minute window, implementing
// the supplemented partial-completion shift rule: a partially-completed
// Node whose window start has not yet passed schedules its remaining
// minutes from the original window's start; once the window start has
// passed, the remaining minutes shift to the end of the interval
// (ending at the target time).
func mapExact(plan *Plan, entries []*entry, passedMinutes int) {
	for _, e := range entries {
		if e.originProperty != types.TDExact {
			continue
		}
		tdMinuteIndex := minuteIndex(plan.Start, e.effectiveTD)

		windowStart := tdMinuteIndex - e.origReqMinutes
		shiftToEnd := e.minutesNeeded < e.origReqMinutes && passedMinutes >= windowStart
		var start int
		if shiftToEnd {
			start = tdMinuteIndex - e.minutesNeeded
		} else {
			start = windowStart
		}
		if start < passedMinutes {
			start = passedMinutes
		}
		filled := fillForward(plan, e.node.ID, start, e.minutesNeeded)
		plan.ExactConsumed += filled
	}
}

func minuteIndex(dayStart time.Time, epoch int64) int {
	t := time.Unix(epoch, 0).Local()
	return int(t.Sub(dayStart).Minutes())
}

// fillForward stamps up to n minutes of node starting at idx (clamped
// into the plan), returning the number of minutes actually filled.
// Exact-TD placement is allowed to overwrite whatever minute was
// previously occupied there (appointments may overlap, mirroring the
// EPS map's tolerance for exact-TD overlap).
func fillForward(plan *Plan, node idgen.NodeID, idx, n int) int {
	filled := 0
	for i := 0; i < n && idx+i >= 0 && idx+i < len(plan.Minutes); i++ {
		plan.Minutes[idx+i] = node
		filled++
	}
	return filled
}
