package graph

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// NodePatch carries an edit_node request's touched fields. Only non-nil
// fields are applied; this replaces the reference implementation's
// Edit-flags bitmask with an explicit, typed optional-field set (per the
// design note preferring sum types/typed flag sets over bitmasks).
type NodePatch struct {
	Description     *string
	EffortSeconds   *float64
	Completion      *float64
	Valuation       *float64
	TargetDate      *int64
	ClearTargetDate bool
	TDProperty      *types.TDProperty
	Repeats         *bool
	TDPattern       *types.TDPattern
	TDEvery         *int
	TDSpan          *int
	// Topics, if non-nil, wholesale replaces the Node's topic relevance
	// map. Every key must already be registered (EditNode re-validates).
	Topics map[types.TopicID]float64
}

// EditNode applies patch to the Node identified by id. It fails with
// types.ErrNotFound if id does not exist, or types.ErrUnknownTopic if
// patch.Topics names an unregistered Topic.
func (g *Graph) EditNode(id idgen.NodeID, patch NodePatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %s", types.ErrNotFound, id)
	}
	if patch.Topics != nil {
		for topicID := range patch.Topics {
			if _, ok := g.topics[topicID]; !ok {
				return fmt.Errorf("%w: topic id %d", types.ErrUnknownTopic, topicID)
			}
		}
		if len(patch.Topics) == 0 {
			return types.ErrNoTopics
		}
	}
	applyNodePatch(n, patch)
	return n.Validate()
}

func applyNodePatch(n *types.Node, patch NodePatch) {
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.EffortSeconds != nil {
		n.EffortSeconds = *patch.EffortSeconds
	}
	if patch.Completion != nil {
		n.Completion = *patch.Completion
	}
	if patch.Valuation != nil {
		n.Valuation = *patch.Valuation
	}
	if patch.ClearTargetDate {
		n.TargetDate = nil
	} else if patch.TargetDate != nil {
		td := *patch.TargetDate
		n.TargetDate = &td
	}
	if patch.TDProperty != nil {
		n.TDProperty = *patch.TDProperty
	}
	if patch.Repeats != nil {
		n.Repeats = *patch.Repeats
	}
	if patch.TDPattern != nil {
		n.TDPattern = *patch.TDPattern
	}
	if patch.TDEvery != nil {
		n.TDEvery = *patch.TDEvery
	}
	if patch.TDSpan != nil {
		n.TDSpan = *patch.TDSpan
	}
	if patch.Topics != nil {
		n.Topics = make(map[types.TopicID]float64, len(patch.Topics))
		for k, v := range patch.Topics {
			n.Topics[k] = v
		}
	}
}

// EdgePatch carries an edit_edge request's touched fields.
type EdgePatch struct {
	Dependency   *float64
	Significance *float64
	Importance   *float64
	Urgency      *float64
	Priority     *float64
}

// EditEdge applies patch to the Edge identified by id.
func (g *Graph) EditEdge(id idgen.EdgeID, patch EdgePatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("%w: edge %s", types.ErrNotFound, id)
	}
	if patch.Dependency != nil {
		e.Dependency = *patch.Dependency
	}
	if patch.Significance != nil {
		e.Significance = *patch.Significance
	}
	if patch.Importance != nil {
		e.Importance = *patch.Importance
	}
	if patch.Urgency != nil {
		e.Urgency = *patch.Urgency
	}
	if patch.Priority != nil {
		e.Priority = *patch.Priority
	}
	return e.Validate()
}
