package fzupdate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/epsmap"
	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/graphmod"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

// Result is the outcome of a full EPS scheduler run.
type Result struct {
	// TargetDates is the new-TD map restricted to variable/unspecified
	// Nodes (spec §4.F "Output"), ready to hand to the
	// modification-request protocol as a BATCH_TARGETDATES request.
	TargetDates map[idgen.NodeID]int64
	Map         *epsmap.Map
	Warnings    []string
}

// ToBatchRequest packages r.TargetDates as a graphmod Request.
func (r *Result) ToBatchRequest() graphmod.Request {
	return graphmod.Request{Kind: graphmod.BatchTargetDates, TargetDates: r.TargetDates}
}

type group struct {
	td      int64
	members []*tdengine.Ranked
	chunks  int
}

// Run executes the three-pass EPS scheduler against g's incomplete Nodes
// as of now.
func Run(g *graph.Graph, cfg config.Scheduler, now time.Time) (*Result, error) {
	ranked, err := tdengine.IncompleteByEffectiveTargetDate(g)
	if err != nil {
		return nil, err
	}

	candidates := make([]*tdengine.Ranked, 0, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		if r.TargetDate == types.TMax {
			continue // never placed (spec §8 boundary behavior)
		}
		if ChunksRequired(r.Node, cfg.ChunkMinutes) == 0 {
			continue // chunks_req == 0 is omitted from all passes
		}
		candidates = append(candidates, r)
	}

	m := epsmap.New(now, cfg.MapDays*max(cfg.MapMultiplier, 1), cfg.ChunkMinutes)

	placeExact(m, candidates, cfg)
	placeFixed(m, candidates, cfg)
	warnings := groupAndPlaceMovable(m, candidates, cfg)
	warnings = append(warnings, repeatingTooTightWarnings(m, candidates, cfg)...)

	result := &Result{
		TargetDates: getEPSUpdateNodes(m, candidates, cfg),
		Map:         m,
		Warnings:    warnings,
	}
	return result, nil
}

// placeExact is pass 1: exact-origin Nodes reserve backward from their
// own target date, tolerating overlap.
func placeExact(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) {
	for _, r := range candidates {
		if r.OriginProperty != types.TDExact {
			continue
		}
		chunks := ChunksRequired(r.Node, cfg.ChunkMinutes)
		td := time.Unix(r.TargetDate, 0).Local()
		m.ReserveExact(r.Node.ID, chunks, td)
		markPeriodicLessThanYear(m, r.Node)
	}
}

// placeFixed is pass 2: a fixed-origin Node that is its own origin
// reserves backward from its own deadline; one whose fixed TD is
// inherited from a superior is marked groupable for pass 3 instead.
func placeFixed(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) {
	for _, r := range candidates {
		if r.OriginProperty != types.TDFixed {
			continue
		}
		if r.Node.ID == r.Origin {
			chunks := ChunksRequired(r.Node, cfg.ChunkMinutes)
			td := time.Unix(r.TargetDate, 0).Local()
			m.ReserveFixed(r.Node.ID, chunks, td)
		} else {
			m.FlagsFor(r.Node.ID).TreatGroupable = true
		}
		markPeriodicLessThanYear(m, r.Node)
	}
}

// markPeriodicLessThanYear flags a Node that repeats more often than
// yearly with no span limit, mirroring the reference implementation's
// eps_mask::periodiclessthanyear (core/fzupdate/epsmap.cpp
// place_exact/place_fixed): an unlimited, sub-yearly repeat is the
// pattern most likely to produce chunks that do not fit between
// successive iterations.
func markPeriodicLessThanYear(m *epsmap.Map, n *types.Node) {
	if n.Repeats && n.TDPattern < types.PatternYearly && n.TDSpan == 0 {
		m.FlagsFor(n.ID).PeriodicLessThanYear = true
	}
}

// repeatingTooTightWarnings reports, when cfg.WarnRepeatingTooTight is
// enabled, every candidate flagged PeriodicLessThanYear whose chunk
// requirement does not fit within one period of its own repetition
// (spec §6 warn_repeating_too_tight; spec §7 "policy warnings ... do
// not abort").
func repeatingTooTightWarnings(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) []string {
	if !cfg.WarnRepeatingTooTight {
		return nil
	}
	var warnings []string
	for _, r := range candidates {
		if !m.FlagsFor(r.Node.ID).PeriodicLessThanYear {
			continue
		}
		periodMinutes := periodMinutesFor(r.Node.TDPattern, r.Node.TDEvery)
		if periodMinutes <= 0 {
			continue
		}
		chunks := ChunksRequired(r.Node, cfg.ChunkMinutes)
		if chunks*cfg.ChunkMinutes > periodMinutes {
			warnings = append(warnings, fmt.Sprintf(
				"node %s repeats every %d minutes but needs %d minutes of chunks: will not fit between iterations",
				r.Node.ID, periodMinutes, chunks*cfg.ChunkMinutes))
		}
	}
	return warnings
}

// periodMinutesFor approximates the number of minutes between
// successive occurrences of pattern (every n periods), for the tightness
// check above. Calendar-variable patterns (monthly, endofmonthoffset)
// use a 30-day approximation; yearly and nonperiodic never reach here
// since they are excluded by markPeriodicLessThanYear.
func periodMinutesFor(pattern types.TDPattern, every int) int {
	if every < 1 {
		every = 1
	}
	const minutesPerDay = 24 * 60
	switch pattern {
	case types.PatternDaily, types.PatternWorkdays:
		return minutesPerDay * every
	case types.PatternWeekly:
		return 7 * minutesPerDay * every
	case types.PatternBiweekly:
		return 14 * minutesPerDay * every
	case types.PatternMonthly, types.PatternEndOfMonthOffset:
		return 30 * minutesPerDay * every
	default:
		return 0
	}
}

// groupAndPlaceMovable is pass 3: adjacent Nodes sharing an effective TD
// are grouped, the group's total chunk requirement is reserved forward
// from the map's cursor, and the resulting slot time becomes every
// member's proposed new TD.
func groupAndPlaceMovable(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) []string {
	var warnings []string
	groups := buildMovableGroups(m, candidates, cfg)

	dolater, errL := cfg.DolaterEndOfDayDuration()
	doearlier, errE := cfg.DoearlierEndOfDayDuration()
	endOfDayOK := errL == nil && errE == nil
	if endOfDayOK && cfg.TimezoneOffsetHours != 0 {
		// Grounded on core/fzupdate/epsmap.cpp's priorityendofday
		// adjustment: a nonzero installation timezone offset shifts the
		// configured end-of-day boundary by the same number of hours
		// before it is compared against proposed target dates.
		offset := time.Duration(cfg.TimezoneOffsetHours) * time.Hour
		dolater -= offset
		doearlier -= offset
	}

	for _, grp := range groups {
		newTD := m.Reserve(grp.members[0].Node.ID, grp.chunks)
		if newTD == epsmap.Unspecified {
			for _, mem := range grp.members {
				m.FlagsFor(mem.Node.ID).Insufficient = true
			}
			if cfg.PackMoveable {
				overflow := m.TBeyond().Add(time.Duration(cfg.PackIntervalBeyond) * time.Second)
				for i, mem := range grp.members {
					mem.TargetDate = overflow.Add(time.Duration(i) * time.Minute).Unix()
				}
			}
			warnings = append(warnings, "group exhausted map window, chunks required: "+strconv.Itoa(grp.chunks))
			continue
		}
		t := time.Unix(newTD, 0).Local()
		if endOfDayOK && cfg.EndOfDayPriorities {
			t = m.EndOfDayAdjust(t, dolater, doearlier, false, cfg.EPSGroupOffsetMins)
		}
		for _, mem := range grp.members {
			mem.TargetDate = t.Unix()
			m.FlagsFor(mem.Node.ID).EPSGroupMember = true
		}
	}
	return warnings
}

func isMovableCandidate(r *tdengine.Ranked, m *epsmap.Map) bool {
	if r.OriginProperty == types.TDVariable || r.OriginProperty == types.TDUnspecified {
		return true
	}
	return m.FlagsFor(r.Node.ID).TreatGroupable
}

// buildMovableGroups groups adjacent candidates (candidates is already
// sorted by effective TD, then NodeID) that share an effective TD and
// are eligible for pass 3.
func buildMovableGroups(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) []*group {
	var groups []*group
	var cur *group
	for _, r := range candidates {
		if !isMovableCandidate(r, m) {
			cur = nil
			continue
		}
		chunks := ChunksRequired(r.Node, cfg.ChunkMinutes)
		if cur != nil && cur.td == r.TargetDate {
			cur.members = append(cur.members, r)
			cur.chunks += chunks
			continue
		}
		cur = &group{td: r.TargetDate, members: []*tdengine.Ranked{r}, chunks: chunks}
		groups = append(groups, cur)
	}
	return groups
}

// getEPSUpdateNodes builds the final NodeID -> new target date map,
// restricted to variable/unspecified Nodes, further filtered (when
// update_to_earlier_allowed is false) to only those whose new TD is
// later than their old effective TD (spec §4.F "Output").
func getEPSUpdateNodes(m *epsmap.Map, candidates []*tdengine.Ranked, cfg config.Scheduler) map[idgen.NodeID]int64 {
	out := make(map[idgen.NodeID]int64)
	for _, r := range candidates {
		if r.OriginProperty != types.TDVariable && r.OriginProperty != types.TDUnspecified {
			continue
		}
		flags := m.FlagsFor(r.Node.ID)
		if flags.Insufficient && !cfg.PackMoveable {
			continue
		}
		if !cfg.UpdateToEarlierAllowed {
			oldTD, err := r.Node.ExplicitTargetDate()
			if err == nil && r.TargetDate <= oldTD {
				continue
			}
		}
		out[r.Node.ID] = r.TargetDate
	}
	return out
}
