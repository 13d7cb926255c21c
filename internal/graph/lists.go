package graph

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// AddToList adds id to the Named Node List name, creating the list with
// default policy (unbounded, non-unique, FIFO, append) on first use. It
// fails with types.ErrNotFound if id is not a Node in the Graph.
func (g *Graph) AddToList(name string, id idgen.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: node %s", types.ErrNotFound, id)
	}
	l, ok := g.lists[name]
	if !ok {
		l = types.NewNamedNodeList(name, 0, false, true, false)
		g.lists[name] = l
	}
	l.Add(id)
	return nil
}

// RemoveFromList removes id from list name, if both exist.
func (g *Graph) RemoveFromList(name string, id idgen.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.lists[name]
	if !ok {
		return fmt.Errorf("%w: list %q", types.ErrNotFound, name)
	}
	l.Remove(id)
	return nil
}

// DeleteList removes an entire Named Node List.
func (g *Graph) DeleteList(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.lists[name]; !ok {
		return fmt.Errorf("%w: list %q", types.ErrNotFound, name)
	}
	delete(g.lists, name)
	return nil
}

// CopyList copies up to max entries (0 = unlimited) from list "from" into
// list "to", creating "to" if necessary.
func (g *Graph) CopyList(from, to string, max int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, ok := g.lists[from]
	if !ok {
		return fmt.Errorf("%w: list %q", types.ErrNotFound, from)
	}
	dst, ok := g.lists[to]
	if !ok {
		dst = types.NewNamedNodeList(to, 0, false, true, false)
		g.lists[to] = dst
	}
	items := src.Items
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	for _, id := range items {
		dst.Add(id)
	}
	return nil
}

// List returns a snapshot of the Named Node List name, or
// types.ErrNotFound.
func (g *Graph) List(name string) (*types.NamedNodeList, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.lists[name]
	if !ok {
		return nil, fmt.Errorf("%w: list %q", types.ErrNotFound, name)
	}
	copyL := *l
	copyL.Items = append([]idgen.NodeID(nil), l.Items...)
	return &copyL, nil
}

// PutList installs a fully-formed list, overwriting any existing list of
// the same name. Used by persistence load and by CreateList-style
// requests that set policy flags up front.
func (g *Graph) PutList(l *types.NamedNodeList) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copyL := *l
	copyL.Items = append([]idgen.NodeID(nil), l.Items...)
	g.lists[l.Name] = &copyL
}

// ListNames returns the names of every stored Named Node List.
func (g *Graph) ListNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.lists))
	for name := range g.lists {
		names = append(names, name)
	}
	return names
}

// AllNodes returns a snapshot copy of every Node in the Graph. Used by
// components that need to iterate the whole store (the td-engine,
// EPS map construction, day-packing).
func (g *Graph) AllNodes() []*types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*types.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		copyN := *n
		out = append(out, &copyN)
	}
	return out
}
