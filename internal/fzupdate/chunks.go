// Package fzupdate implements the EPS scheduler: the three-pass
// algorithm (exact -> fixed -> movable) that produces updated target
// dates for variable-TD Nodes (spec §4.F). Grounded on the reference
// implementation's core/fzupdate/epsmap.cpp (EPS_map::place_exact,
// place_fixed, group_and_place_movable, get_eps_update_nodes).
package fzupdate

import (
	"math"

	"github.com/formalizer/fzcore/internal/types"
)

// ChunksRequired returns the number of chunk_minutes-sized chunks needed
// to cover a Node's remaining estimated effort. A Node with zero
// remaining effort requires zero chunks and is omitted from all three
// passes (spec §8 boundary behavior).
func ChunksRequired(n *types.Node, chunkMinutes int) int {
	if n.EffortSeconds <= 0 || chunkMinutes <= 0 {
		return 0
	}
	remainingMinutes := n.EffortSeconds / 60.0
	return int(math.Ceil(remainingMinutes / float64(chunkMinutes)))
}
