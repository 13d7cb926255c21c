package types

import (
	"errors"
	"math"

	"github.com/formalizer/fzcore/internal/idgen"
)

// TMax is the sentinel effective target date used for Nodes that
// contribute no real deadline to scheduling: completed Nodes, and
// inherit-chains that terminate without an origin.
const TMax int64 = math.MaxInt64

// CompletionOther is a negative completion value denoting a special
// non-numeric completion state (e.g. "obsolete", "cancelled").
const CompletionOther = -1.0

// Node is a unit of intended work.
type Node struct {
	ID idgen.NodeID

	Description string

	// EffortSeconds is the estimated effort remaining, in seconds.
	// Exposed to callers in hours via Hours().
	EffortSeconds float64

	// Completion is a ratio in [0,1]; a negative value denotes a special
	// state such as CompletionOther rather than "0% done".
	Completion float64

	Valuation float64

	// TargetDate is epoch seconds, or nil if unspecified.
	TargetDate *int64

	TDProperty TDProperty
	Repeats    bool
	TDPattern  TDPattern
	// TDEvery is the repetition multiplier (e.g. 2 for "every other week").
	TDEvery int
	// TDSpan is the number of repeat iterations remaining; 0 means unlimited.
	TDSpan int

	// Topics maps a Topic's ID to its relevance in [0,1] for this Node.
	Topics map[TopicID]float64
}

// Hours returns the estimated effort in hours.
func (n *Node) Hours() float64 {
	return n.EffortSeconds / 3600.0
}

// IsComplete reports whether the Node's completion ratio is 1 or more,
// or is a negative special-state value (treated as complete for
// scheduling purposes: it no longer consumes slots).
func (n *Node) IsComplete() bool {
	return n.Completion >= 1.0 || n.Completion < 0
}

// ErrNoTargetDate is returned by callers that require an explicit target
// date on a Node that has none.
var ErrNoTargetDate = errors.New("node has no target date")

// ExplicitTargetDate returns the Node's own target date, if any.
func (n *Node) ExplicitTargetDate() (int64, error) {
	if n.TargetDate == nil {
		return 0, ErrNoTargetDate
	}
	return *n.TargetDate, nil
}

// Validate enforces the per-Node scalar invariants (spec invariant 6): all
// [0,1] payloads are checked, and clamps are applied in place for values
// that are merely out of range due to floating point drift rather than
// structurally wrong.
func (n *Node) Validate() error {
	if n.Completion < CompletionOther {
		return errors.New("completion below the special-state sentinel")
	}
	if n.Completion >= 0 {
		n.Completion = clampUnit(n.Completion)
	}
	for id, relevance := range n.Topics {
		n.Topics[id] = clampUnit(relevance)
	}
	if n.EffortSeconds < 0 {
		return errors.New("estimated effort must be non-negative")
	}
	if n.Repeats {
		if n.TDPattern == PatternNonperiodic {
			return errors.New("a repeating node cannot use the nonperiodic pattern")
		}
		if n.TDProperty == TDVariable || n.TDProperty == TDUnspecified {
			return errors.New("a repeating node cannot have variable or unspecified td_property")
		}
		if n.TDEvery < 1 {
			n.TDEvery = 1
		}
	}
	return nil
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
