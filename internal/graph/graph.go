// Package graph implements the in-memory Graph store: the process-wide
// arena of Nodes, Edges, Topics, and Named Node Lists, with the
// uniqueness, referential-integrity, and ownership invariants spec'd for
// the scheduling core. All cross-references are by NodeID/EdgeID, never
// by pointer, so the store can be exposed to another process without
// translating addresses (see the design notes on arena + stable keys).
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// Graph is the in-memory store. The zero value is not usable; construct
// with New. A Graph is safe for concurrent readers; writers must hold
// the caller-side serialization described in §5 (the modification-request
// protocol applies one batch to completion before the next starts).
type Graph struct {
	mu sync.RWMutex

	nodes map[idgen.NodeID]*types.Node
	edges map[idgen.EdgeID]*types.Edge

	// supOf[dep] lists the EdgeIDs where dep is the dependency endpoint,
	// i.e. dep's outgoing edges to its superiors.
	supOf map[idgen.NodeID][]idgen.EdgeID
	// depOf[sup] lists the EdgeIDs where sup is the superior endpoint,
	// i.e. sup's incoming edges from its dependencies.
	depOf map[idgen.NodeID][]idgen.EdgeID

	topics      map[types.TopicID]*types.Topic
	topicByTag  map[string]types.TopicID
	nextTopicID types.TopicID

	lists map[string]*types.NamedNodeList
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[idgen.NodeID]*types.Node),
		edges:      make(map[idgen.EdgeID]*types.Edge),
		supOf:      make(map[idgen.NodeID][]idgen.EdgeID),
		depOf:      make(map[idgen.NodeID][]idgen.EdgeID),
		topics:     make(map[types.TopicID]*types.Topic),
		topicByTag: make(map[string]types.TopicID),
		lists:      make(map[string]*types.NamedNodeList),
	}
}

// AddNode inserts n. It fails with types.ErrIDCollision if n.ID already
// exists, and with types.ErrNoTopics if n carries no Topic tags (spec
// invariant 2), and with types.ErrUnknownTopic if any tag is not
// registered (spec invariant 3).
func (g *Graph) AddNode(n *types.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNodeLocked(n)
}

func (g *Graph) addNodeLocked(n *types.Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", types.ErrIDCollision, n.ID)
	}
	if len(n.Topics) == 0 {
		return types.ErrNoTopics
	}
	for topicID := range n.Topics {
		if _, ok := g.topics[topicID]; !ok {
			return fmt.Errorf("%w: topic id %d", types.ErrUnknownTopic, topicID)
		}
	}
	if err := n.Validate(); err != nil {
		return err
	}
	stored := *n
	stored.Topics = make(map[types.TopicID]float64, len(n.Topics))
	for k, v := range n.Topics {
		stored.Topics[k] = v
	}
	g.nodes[n.ID] = &stored
	return nil
}

// NodeByID returns the Node with the given ID, or types.ErrNotFound.
func (g *Graph) NodeByID(id idgen.NodeID) (*types.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %s", types.ErrNotFound, id)
	}
	copyN := *n
	return &copyN, nil
}

// AllNodeIDs returns every Node ID currently in the Graph, in ID order.
func (g *Graph) AllNodeIDs() []idgen.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]idgen.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// AddEdge inserts e. It fails with types.ErrEndpointMissing if either
// endpoint does not exist, or types.ErrDuplicateEdge if the (dep, sup)
// pair already has an Edge.
func (g *Graph) AddEdge(e *types.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEdgeLocked(e)
}

func (g *Graph) addEdgeLocked(e *types.Edge) error {
	if _, ok := g.nodes[e.ID.Dep]; !ok {
		return fmt.Errorf("%w: dependency %s", types.ErrEndpointMissing, e.ID.Dep)
	}
	if _, ok := g.nodes[e.ID.Sup]; !ok {
		return fmt.Errorf("%w: superior %s", types.ErrEndpointMissing, e.ID.Sup)
	}
	if _, exists := g.edges[e.ID]; exists {
		return fmt.Errorf("%w: %s", types.ErrDuplicateEdge, e.ID)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	stored := *e
	g.edges[e.ID] = &stored
	g.supOf[e.ID.Dep] = append(g.supOf[e.ID.Dep], e.ID)
	g.depOf[e.ID.Sup] = append(g.depOf[e.ID.Sup], e.ID)
	return nil
}

// EdgeByID returns the Edge with the given ID, or types.ErrNotFound.
func (g *Graph) EdgeByID(id idgen.EdgeID) (*types.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		return nil, fmt.Errorf("%w: edge %s", types.ErrNotFound, id)
	}
	copyE := *e
	return &copyE, nil
}

// DepEdgesOf returns the Edges in which node is the superior endpoint,
// i.e. node's dependencies, ordered by (sup,dep).
func (g *Graph) DepEdgesOf(node idgen.NodeID) []*types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesForLocked(g.depOf[node])
}

// SupEdgesOf returns the Edges in which node is the dependency endpoint,
// i.e. the superiors node feeds into, ordered by (sup,dep).
func (g *Graph) SupEdgesOf(node idgen.NodeID) []*types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesForLocked(g.supOf[node])
}

// EdgesOf returns every Edge touching node, in either role.
func (g *Graph) EdgesOf(node idgen.NodeID) []*types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := append(append([]idgen.EdgeID{}, g.depOf[node]...), g.supOf[node]...)
	return g.edgesForLocked(ids)
}

func (g *Graph) edgesForLocked(ids []idgen.EdgeID) []*types.Edge {
	out := make([]*types.Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := g.edges[id]; ok {
			copyE := *e
			out = append(out, &copyE)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// RemoveNode deletes a Node and every Edge touching it (an Edge is
// removed when one of its endpoints is removed, per spec Edge lifecycle).
func (g *Graph) RemoveNode(id idgen.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: node %s", types.ErrNotFound, id)
	}
	for _, eid := range append(append([]idgen.EdgeID{}, g.depOf[id]...), g.supOf[id]...) {
		g.removeEdgeLocked(eid)
	}
	delete(g.nodes, id)
	delete(g.supOf, id)
	delete(g.depOf, id)
	return nil
}

// RemoveEdge deletes a single Edge.
func (g *Graph) RemoveEdge(id idgen.EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edges[id]; !ok {
		return fmt.Errorf("%w: edge %s", types.ErrNotFound, id)
	}
	g.removeEdgeLocked(id)
	return nil
}

func (g *Graph) removeEdgeLocked(id idgen.EdgeID) {
	delete(g.edges, id)
	g.supOf[id.Dep] = removeEdgeID(g.supOf[id.Dep], id)
	g.depOf[id.Sup] = removeEdgeID(g.depOf[id.Sup], id)
}

func removeEdgeID(ids []idgen.EdgeID, target idgen.EdgeID) []idgen.EdgeID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
