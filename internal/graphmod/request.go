// Package graphmod implements the modification-request protocol: a
// client-constructed batch of proposed Graph changes, validated in full
// before any part is applied, then applied atomically in arrival order
// (spec §4.C).
package graphmod

import (
	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// Kind identifies the shape of a single Request within a Batch.
type Kind int

const (
	AddNode Kind = iota
	AddEdge
	EditNode
	EditEdge
	BatchTargetDates
	BatchTPass
	ListAdd
	ListRemove
	ListDelete
)

func (k Kind) String() string {
	switch k {
	case AddNode:
		return "ADD_NODE"
	case AddEdge:
		return "ADD_EDGE"
	case EditNode:
		return "EDIT_NODE"
	case EditEdge:
		return "EDIT_EDGE"
	case BatchTargetDates:
		return "BATCH_TARGETDATES"
	case BatchTPass:
		return "BATCH_TPASS"
	case ListAdd:
		return "LIST_ADD"
	case ListRemove:
		return "LIST_REMOVE"
	case ListDelete:
		return "LIST_DELETE"
	default:
		return "UNKNOWN"
	}
}

// Request is one entry in a Batch. Only the fields relevant to Kind are
// consulted; the others are ignored.
type Request struct {
	Kind Kind

	Node *types.Node // AddNode
	Edge *types.Edge // AddEdge

	EditNodeID    idgen.NodeID // EditNode
	EditNodePatch graph.NodePatch

	EditEdgeID    idgen.EdgeID // EditEdge
	EditEdgePatch graph.EdgePatch

	TargetDates map[idgen.NodeID]int64 // BatchTargetDates

	TPassTime int64 // BatchTPass, epoch seconds

	ListName   string       // ListAdd, ListRemove, ListDelete
	ListNodeID idgen.NodeID // ListAdd, ListRemove
}

// Result records the outcome of one successfully applied Request.
type Result struct {
	Kind   Kind
	NodeID idgen.NodeID
	EdgeID idgen.EdgeID
	Aux    string
}

// Batch is the FIFO list of Requests a single modification call applies.
type Batch struct {
	Requests []Request
}
