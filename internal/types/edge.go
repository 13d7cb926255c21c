package types

import "github.com/formalizer/fzcore/internal/idgen"

// Edge is a directed dependency relation: Dep must be (at least in part)
// finished before Sup is considered unblocked.
type Edge struct {
	ID idgen.EdgeID

	// Dependency, Significance, Importance, Urgency, and Priority are all
	// scalars in [0,1] describing the strength of the relation.
	Dependency   float64
	Significance float64
	Importance   float64
	Urgency      float64
	Priority     float64
}

// Dep returns the dependency endpoint's NodeID.
func (e *Edge) Dep() idgen.NodeID { return e.ID.Dep }

// Sup returns the superior endpoint's NodeID.
func (e *Edge) Sup() idgen.NodeID { return e.ID.Sup }

// Validate clamps the five payload scalars into [0,1].
func (e *Edge) Validate() error {
	e.Dependency = clampUnit(e.Dependency)
	e.Significance = clampUnit(e.Significance)
	e.Importance = clampUnit(e.Importance)
	e.Urgency = clampUnit(e.Urgency)
	e.Priority = clampUnit(e.Priority)
	return nil
}
