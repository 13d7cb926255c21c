package tdengine

import (
	"sort"
	"time"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

func timestampFromEpoch(epoch int64) (time.Time, error) {
	return time.Unix(epoch, 0).Local(), nil
}

// Ranked pairs a Node with its resolved effective target date, the unit
// the EPS scheduler and the day-packing scheduler both consume.
type Ranked struct {
	Node *types.Node
	Effective
}

// IncompleteByEffectiveTargetDate returns every incomplete Node in g,
// sorted by effective target date then NodeID, implementing the virtual
// `_incomplete` Named Node List (spec §3). Completed Nodes are skipped;
// Nodes whose effective TD is types.TMax with no qualifying origin are
// included (callers filter TMax out where the spec requires it, e.g.
// "a Node whose effective TD is TMax is never placed").
func IncompleteByEffectiveTargetDate(g *graph.Graph) ([]Ranked, error) {
	ids := g.AllNodeIDs()
	out := make([]Ranked, 0, len(ids))
	for _, id := range ids {
		n, err := g.NodeByID(id)
		if err != nil {
			return nil, err
		}
		if n.IsComplete() {
			continue
		}
		eff, err := EffectiveTargetDate(g, id)
		if err != nil && err != ErrInheritCycle {
			return nil, err
		}
		out = append(out, Ranked{Node: n, Effective: eff})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TargetDate != out[j].TargetDate {
			return out[i].TargetDate < out[j].TargetDate
		}
		return out[i].Node.ID.Less(out[j].Node.ID)
	})
	return out, nil
}

// Shortlist rebuilds the reserved `shortlist` Named Node List: up to
// maxRecent entries from the `recent` list, followed by up to
// maxIncomplete Nodes from the incomplete-by-effective-target-date view,
// deduplicated, per spec §3.
func Shortlist(g *graph.Graph, maxRecent, maxIncomplete int) ([]idgen.NodeID, error) {
	seen := make(map[idgen.NodeID]bool)
	out := make([]idgen.NodeID, 0, maxRecent+maxIncomplete)

	if recent, err := g.List(types.ListRecent); err == nil {
		for _, id := range recent.Items {
			if len(out) >= maxRecent {
				break
			}
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	ranked, err := IncompleteByEffectiveTargetDate(g)
	if err != nil {
		return nil, err
	}
	added := 0
	for _, r := range ranked {
		if added >= maxIncomplete {
			break
		}
		if r.TargetDate == types.TMax {
			continue
		}
		if !seen[r.Node.ID] {
			seen[r.Node.ID] = true
			out = append(out, r.Node.ID)
			added++
		}
	}
	return out, nil
}
