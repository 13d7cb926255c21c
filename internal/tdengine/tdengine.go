// Package tdengine computes the effective target date of a Node: the
// date actually used for scheduling, after following inherit-chains up
// to an origin and after accounting for completion and repetition.
package tdengine

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/timeparsing"
	"github.com/formalizer/fzcore/internal/types"
)

// MaxInheritDepth bounds inherit-chain traversal. The reference
// implementation does not detect cycles in inherit chains (spec §9 open
// question); this reimplementation resolves that ambiguity by capping
// traversal depth rather than forbidding cycles structurally, so that a
// malformed Graph degrades to "no origin found" instead of hanging.
const MaxInheritDepth = 64

// ErrInheritCycle is returned when an inherit chain does not terminate
// within MaxInheritDepth hops.
var ErrInheritCycle = fmt.Errorf("inherit chain exceeds %d hops, likely a cycle", MaxInheritDepth)

// Effective is the result of resolving a Node's effective target date.
type Effective struct {
	// TargetDate is the epoch seconds actually used for scheduling, or
	// types.TMax if the Node contributes no real deadline.
	TargetDate int64
	// Origin is the NodeID whose own td_property classifies the chain:
	// the Node itself unless it is inherit and a superior supplied the
	// date.
	Origin idgen.NodeID
	// OriginProperty is Origin's own td_property.
	OriginProperty types.TDProperty
}

// EffectiveTargetDate computes the effective target date of the Node
// identified by id, per spec §4.D:
//   - exact/fixed/variable/unspecified Nodes are their own origin.
//   - inherit Nodes follow their earliest (by effective TD) superior
//     whose own origin property is not inherit; with no qualifying
//     superior, they contribute types.TMax.
//   - a completed Node always contributes types.TMax.
func EffectiveTargetDate(g *graph.Graph, id idgen.NodeID) (Effective, error) {
	return effectiveTargetDate(g, id, 0)
}

func effectiveTargetDate(g *graph.Graph, id idgen.NodeID, depth int) (Effective, error) {
	n, err := g.NodeByID(id)
	if err != nil {
		return Effective{}, err
	}
	if n.IsComplete() {
		return Effective{TargetDate: types.TMax, Origin: id, OriginProperty: n.TDProperty}, nil
	}
	switch n.TDProperty {
	case types.TDExact, types.TDFixed, types.TDVariable, types.TDUnspecified:
		td := types.TMax
		if n.TargetDate != nil {
			td = *n.TargetDate
		} else if n.TDProperty != types.TDUnspecified {
			td = types.TMax
		}
		return Effective{TargetDate: td, Origin: id, OriginProperty: n.TDProperty}, nil
	case types.TDInherit:
		if depth >= MaxInheritDepth {
			return Effective{TargetDate: types.TMax, Origin: id, OriginProperty: types.TDInherit}, ErrInheritCycle
		}
		return resolveInherit(g, id, depth)
	default:
		return Effective{TargetDate: types.TMax, Origin: id, OriginProperty: n.TDProperty}, nil
	}
}

// resolveInherit finds the earliest-by-effective-TD superior whose chain
// terminates in a non-inherit origin, and returns that origin's result.
func resolveInherit(g *graph.Graph, id idgen.NodeID, depth int) (Effective, error) {
	supEdges := g.SupEdgesOf(id)
	if len(supEdges) == 0 {
		return Effective{TargetDate: types.TMax, Origin: id, OriginProperty: types.TDInherit}, nil
	}
	var best *Effective
	var cycleErr error
	for _, e := range supEdges {
		candidate, err := effectiveTargetDate(g, e.Sup(), depth+1)
		if err == ErrInheritCycle {
			cycleErr = err
		} else if err != nil {
			return Effective{}, err
		}
		if best == nil || candidate.TargetDate < best.TargetDate {
			c := candidate
			best = &c
		}
	}
	if best == nil {
		return Effective{TargetDate: types.TMax, Origin: id, OriginProperty: types.TDInherit}, nil
	}
	return *best, cycleErr
}

// Instance is one occurrence of a (possibly repeating) Node within the
// scheduling horizon.
type Instance struct {
	Node       idgen.NodeID
	TargetDate int64
	Iteration  int // 0 for the current instance, 1.. for generated repeats
}

// RepeatInstances generates the sequence of future occurrences of a
// repeating Node, starting at its current effective target date and
// advancing by td_every periods of td_pattern, up to td_span iterations
// (0 = unlimited) or until the horizon end is passed.
func RepeatInstances(n *types.Node, horizonEnd int64) ([]Instance, error) {
	if !n.Repeats || n.TargetDate == nil {
		return nil, nil
	}
	every := n.TDEvery
	if every < 1 {
		every = 1
	}
	instances := []Instance{{Node: n.ID, TargetDate: *n.TargetDate, Iteration: 0}}
	t, err := timestampFromEpoch(*n.TargetDate)
	if err != nil {
		return nil, err
	}
	for iter := 1; n.TDSpan == 0 || iter <= n.TDSpan; iter++ {
		advanced, err := timeparsing.AddToDate(t, n.TDPattern, every)
		if err != nil {
			return nil, err
		}
		if advanced.Unix() > horizonEnd {
			break
		}
		instances = append(instances, Instance{Node: n.ID, TargetDate: advanced.Unix(), Iteration: iter})
		t = advanced
	}
	return instances, nil
}
