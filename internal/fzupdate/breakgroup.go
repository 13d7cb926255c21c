package fzupdate

import (
	"time"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

// BreakGroup dissolves the EPS group currently sharing target date t:
// every variable-TD Node whose effective target date equals t has its
// TD spread downward in 2-minute steps, producing the NodeID -> target
// date map for a BATCH_TARGETDATES request (spec §4.F "Break-group").
func BreakGroup(g *graph.Graph, t int64) (map[idgen.NodeID]int64, error) {
	ranked, err := tdengine.IncompleteByEffectiveTargetDate(g)
	if err != nil {
		return nil, err
	}
	out := make(map[idgen.NodeID]int64)
	step := 0
	for _, r := range ranked {
		if r.OriginProperty != types.TDVariable || r.TargetDate != t {
			continue
		}
		newTD := time.Unix(t, 0).Add(-time.Duration(step) * 2 * time.Minute).Unix()
		out[r.Node.ID] = newTD
		step++
	}
	return out, nil
}
