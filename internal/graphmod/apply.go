package graphmod

import (
	"fmt"
	"time"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/timeparsing"
)

// Apply validates the entire batch, then, only if validation passes in
// full, applies every request in order and returns one Result per
// request. On validation failure, g is left untouched and a
// *ValidationError is returned. Application failures (which validation
// should have made impossible) are collected and returned wrapped in a
// *ApplicationError; requests after the failing one are still attempted,
// matching the reference's "log and continue" treatment of what it
// calls catastrophic errors.
func Apply(g *graph.Graph, batch Batch) ([]Result, error) {
	if err := validate(g, batch); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(batch.Requests))
	var firstAppErr error
	for i, req := range batch.Requests {
		res, err := applyOne(g, req)
		if err != nil {
			if firstAppErr == nil {
				firstAppErr = &ApplicationError{RequestIdx: i, RequestKind: req.Kind, Err: err}
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstAppErr
}

func applyOne(g *graph.Graph, req Request) (Result, error) {
	switch req.Kind {
	case AddNode:
		if err := g.AddNode(req.Node); err != nil {
			return Result{}, err
		}
		return Result{Kind: AddNode, NodeID: req.Node.ID}, nil

	case AddEdge:
		if err := g.AddEdge(req.Edge); err != nil {
			return Result{}, err
		}
		return Result{Kind: AddEdge, EdgeID: req.Edge.ID}, nil

	case EditNode:
		if err := g.EditNode(req.EditNodeID, req.EditNodePatch); err != nil {
			return Result{}, err
		}
		return Result{Kind: EditNode, NodeID: req.EditNodeID}, nil

	case EditEdge:
		if err := g.EditEdge(req.EditEdgeID, req.EditEdgePatch); err != nil {
			return Result{}, err
		}
		return Result{Kind: EditEdge, EdgeID: req.EditEdgeID}, nil

	case BatchTargetDates:
		for id, td := range req.TargetDates {
			td := td
			if err := g.EditNode(id, graph.NodePatch{TargetDate: &td}); err != nil {
				return Result{}, err
			}
		}
		return Result{Kind: BatchTargetDates, Aux: fmt.Sprintf("%d nodes", len(req.TargetDates))}, nil

	case BatchTPass:
		n, err := applyTPass(g, req.TPassTime)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: BatchTPass, Aux: fmt.Sprintf("%d nodes advanced", n)}, nil

	case ListAdd:
		if err := g.AddToList(req.ListName, req.ListNodeID); err != nil {
			return Result{}, err
		}
		return Result{Kind: ListAdd, NodeID: req.ListNodeID, Aux: req.ListName}, nil

	case ListRemove:
		if err := g.RemoveFromList(req.ListName, req.ListNodeID); err != nil {
			return Result{}, err
		}
		return Result{Kind: ListRemove, NodeID: req.ListNodeID, Aux: req.ListName}, nil

	case ListDelete:
		if err := g.DeleteList(req.ListName); err != nil {
			return Result{}, err
		}
		return Result{Kind: ListDelete, Aux: req.ListName}, nil

	default:
		return Result{}, fmt.Errorf("unknown request kind %v", req.Kind)
	}
}

// applyTPass advances every repeating Node whose target date is at or
// before tPass by exactly one period of its pattern (capped by td_span
// when nonzero), per spec §4.C's BATCH_TPASS semantics. It returns the
// number of Nodes advanced. A second call with the same tPass is a
// no-op for any Node whose new target date is now after tPass (spec §8
// idempotence property).
func applyTPass(g *graph.Graph, tPass int64) (int, error) {
	advanced := 0
	for _, id := range g.AllNodeIDs() {
		n, err := g.NodeByID(id)
		if err != nil {
			return advanced, err
		}
		if !n.Repeats || n.TargetDate == nil || *n.TargetDate > tPass {
			continue
		}
		every := n.TDEvery
		if every < 1 {
			every = 1
		}
		next, err := timeparsing.AddToDate(time.Unix(*n.TargetDate, 0).Local(), n.TDPattern, every)
		if err != nil {
			return advanced, err
		}
		nextEpoch := next.Unix()
		patch := graph.NodePatch{TargetDate: &nextEpoch}
		if n.TDSpan > 0 {
			// td_span counts iterations remaining (spec §9 open question,
			// resolved per SPEC_FULL: decrementing is authoritative). The
			// iteration this advance just consumed was the last one once
			// the count reaches zero, so repetition is turned off instead
			// of leaving td_span at 0 — a value that also means
			// "unlimited" and would otherwise let the node repeat forever.
			newSpan := n.TDSpan - 1
			patch.TDSpan = &newSpan
			if newSpan == 0 {
				stop := false
				patch.Repeats = &stop
			}
		}
		if err := g.EditNode(id, patch); err != nil {
			return advanced, err
		}
		advanced++
	}
	return advanced, nil
}
