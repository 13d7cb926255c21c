// Package schedule implements the day-packing scheduler: a concrete
// minute-by-minute assignment of Nodes to a future time window, filling
// exact-TD Nodes first, then fixed-TD Nodes backward from their
// deadlines, then variable-TD Nodes forward from now (spec §4.G).
// Grounded on the reference implementation's
// tools/system/schedule/schedule.{hpp,cpp}.
package schedule

import (
	"time"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

// Outcome is the exit code a day-packing run reports (spec §4.G).
type Outcome int

const (
	OK Outcome = iota
	InsufficientTime
	MissingData
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case InsufficientTime:
		return "insufficient_time"
	case MissingData:
		return "missing_data"
	default:
		return "unknown"
	}
}

// Options configures a single day-packing run.
type Options struct {
	Days         int
	MinBlockSize int // minutes; default 1, commonly 20
	Now          time.Time

	IncludeExact    bool
	IncludeFixed    bool
	IncludeVariable bool
}

// Plan is the minute-resolution output: len(Minutes) == Days*1440 at
// construction time (more may be appended during top-up), each cell
// either the null NodeID (empty) or the Node assigned that minute.
type Plan struct {
	Start   time.Time // local midnight of day 0
	Minutes []idgen.NodeID

	PassedMinutes    int
	ExactConsumed    int
	FixedConsumed    int
	VariableConsumed int

	Warnings []string
}

const minutesPerDay = 24 * 60

// Generate produces a Plan for g under opts, per the three-category,
// single-pass-each strategy ("exact -> fixed-late -> variable-early")
// spec.md §4.G names. Top-up (item 2) extends the horizon in 15-day
// increments up to cfg.FetchDaysBeyondTLimit days if variable Nodes do
// not fit.
func Generate(g *graph.Graph, cfg config.Scheduler, opts Options) (*Plan, Outcome, error) {
	if opts.MinBlockSize <= 0 {
		opts.MinBlockSize = 1
	}
	ranked, err := tdengine.IncompleteByEffectiveTargetDate(g)
	if err != nil {
		return nil, MissingData, err
	}

	dayStart := time.Date(opts.Now.Year(), opts.Now.Month(), opts.Now.Day(), 0, 0, 0, 0, opts.Now.Location())
	passedMinutes := int(opts.Now.Sub(dayStart).Minutes())

	plan := &Plan{
		Start:         dayStart,
		Minutes:       make([]idgen.NodeID, opts.Days*minutesPerDay),
		PassedMinutes: passedMinutes,
	}

	entries := buildEntries(ranked, dayStart, opts.Now)

	if opts.IncludeExact {
		mapExact(plan, entries, passedMinutes)
	}
	if opts.IncludeFixed {
		mapFixedLate(plan, entries, opts.MinBlockSize, passedMinutes)
	}
	outcome := OK
	if opts.IncludeVariable {
		outcome = mapVariableEarlyWithTopUp(plan, entries, opts.MinBlockSize, passedMinutes, cfg)
	}
	return plan, outcome, nil
}

// entry is one scheduling candidate: a Node (or a generated repeat
// instance of one) together with its effective target date and the
// property governing which pass should place it.
type entry struct {
	node           *types.Node
	effectiveTD    int64
	originProperty types.TDProperty
	minutesNeeded  int
	origReqMinutes int // for exact partial-completion shift
}

func buildEntries(ranked []tdengine.Ranked, dayStart time.Time, now time.Time) []*entry {
	out := make([]*entry, 0, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		if r.TargetDate == types.TMax {
			continue
		}
		remainingMinutes := r.Node.EffortSeconds / 60.0
		if remainingMinutes <= 0 {
			continue
		}
		original := remainingMinutes
		if r.Node.Completion > 0 {
			// Effort is tracked as remaining work; back out an estimate of
			// the original total so the exact-TD partial-completion shift
			// (spec §4.G, SPEC_FULL supplemented feature) has a basis.
			original = remainingMinutes / (1 - r.Node.Completion)
		}
		out = append(out, &entry{
			node:           r.Node,
			effectiveTD:    r.TargetDate,
			originProperty: r.OriginProperty,
			minutesNeeded:  int(remainingMinutes + 0.5),
			origReqMinutes: int(original + 0.5),
		})
	}
	return out
}

func includeInFixedStep(e *entry) bool {
	return e.originProperty == types.TDFixed
}

func includeInVariableStep(e *entry) bool {
	return e.originProperty == types.TDVariable || e.originProperty == types.TDUnspecified
}
