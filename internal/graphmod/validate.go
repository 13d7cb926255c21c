package graphmod

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
)

// validate checks every request in the batch against the current Graph
// state and against earlier requests in the same batch (so that, e.g.,
// an ADD_EDGE may reference a Node added earlier in the same batch). The
// first failure aborts the whole batch (spec §4.C step 2).
func validate(g *graph.Graph, batch Batch) error {
	addedNodes := make(map[idgen.NodeID]bool)
	addedEdges := make(map[idgen.EdgeID]bool)

	nodeExists := func(id idgen.NodeID) bool {
		if addedNodes[id] {
			return true
		}
		_, err := g.NodeByID(id)
		return err == nil
	}

	for i, req := range batch.Requests {
		switch req.Kind {
		case AddNode:
			if req.Node == nil {
				return valErr(i, req.Kind, ExitBadRequestData, "add_node: missing node data")
			}
			if nodeExists(req.Node.ID) {
				return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_node: id %s already in use", req.Node.ID))
			}
			if len(req.Node.Topics) == 0 {
				return valErr(i, req.Kind, ExitBadRequestData, "add_node: must carry at least one topic")
			}
			for topicID := range req.Node.Topics {
				if !g.TopicExists(topicID) {
					return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_node: unknown topic id %d", topicID))
				}
			}
			addedNodes[req.Node.ID] = true

		case AddEdge:
			if req.Edge == nil {
				return valErr(i, req.Kind, ExitBadRequestData, "add_edge: missing edge data")
			}
			if !nodeExists(req.Edge.ID.Dep) {
				return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_edge: dependency %s does not exist", req.Edge.ID.Dep))
			}
			if !nodeExists(req.Edge.ID.Sup) {
				return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_edge: superior %s does not exist", req.Edge.ID.Sup))
			}
			if addedEdges[req.Edge.ID] {
				return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_edge: %s already staged in this batch", req.Edge.ID))
			}
			if _, err := g.EdgeByID(req.Edge.ID); err == nil {
				return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("add_edge: %s already exists", req.Edge.ID))
			}
			addedEdges[req.Edge.ID] = true

		case EditNode:
			if !nodeExists(req.EditNodeID) {
				return valErr(i, req.Kind, ExitMissingData, fmt.Sprintf("edit_node: %s does not exist", req.EditNodeID))
			}
			if req.EditNodePatch.Topics != nil {
				for topicID := range req.EditNodePatch.Topics {
					if !g.TopicExists(topicID) {
						return valErr(i, req.Kind, ExitBadRequestData, fmt.Sprintf("edit_node: unknown topic id %d", topicID))
					}
				}
			}

		case EditEdge:
			if !addedEdges[req.EditEdgeID] {
				if _, err := g.EdgeByID(req.EditEdgeID); err != nil {
					return valErr(i, req.Kind, ExitMissingData, fmt.Sprintf("edit_edge: %s does not exist", req.EditEdgeID))
				}
			}

		case BatchTargetDates:
			for id := range req.TargetDates {
				if !nodeExists(id) {
					return valErr(i, req.Kind, ExitMissingData, fmt.Sprintf("batch_targetdates: %s does not exist", id))
				}
			}

		case BatchTPass:
			// always valid; a no-op batch over zero repeating nodes is fine.

		case ListAdd:
			if !nodeExists(req.ListNodeID) {
				return valErr(i, req.Kind, ExitMissingData, fmt.Sprintf("list_add: %s does not exist", req.ListNodeID))
			}
			if req.ListName == "" {
				return valErr(i, req.Kind, ExitBadRequestData, "list_add: missing list name")
			}

		case ListRemove:
			if req.ListName == "" {
				return valErr(i, req.Kind, ExitBadRequestData, "list_remove: missing list name")
			}

		case ListDelete:
			if req.ListName == "" {
				return valErr(i, req.Kind, ExitBadRequestData, "list_delete: missing list name")
			}

		default:
			return valErr(i, req.Kind, ExitCommandLineError, "unknown request kind")
		}
	}
	return nil
}

func valErr(idx int, kind Kind, code ExitCode, msg string) error {
	return &ValidationError{ExitCode: code, Message: msg, RequestIdx: idx, RequestKind: kind}
}
