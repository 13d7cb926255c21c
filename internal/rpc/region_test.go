package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/graphmod"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/rpc"
)

func TestRegionWriteReadBatchRoundTrip(t *testing.T) {
	dir := t.TempDir()

	region, err := rpc.AllocateRegion(dir)
	require.NoError(t, err)

	nodeID, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 9, 0, 0, 1)
	require.NoError(t, err)
	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.ListAdd, ListName: "shortlist", ListNodeID: nodeID},
	}}
	require.NoError(t, region.WriteBatch(batch))

	reattached, err := rpc.OpenRegion(dir, region.Name)
	require.NoError(t, err)

	var got graphmod.Batch
	require.NoError(t, reattached.ReadBatch(&got))
	require.Equal(t, batch, got)

	results := []graphmod.Result{{Kind: graphmod.ListAdd, NodeID: nodeID}}
	require.NoError(t, reattached.WriteResult(results))

	var gotResults []graphmod.Result
	require.NoError(t, region.ReadResult(&gotResults))
	require.Equal(t, results, gotResults)

	require.NoError(t, region.Free())
	_, err = rpc.OpenRegion(dir, region.Name)
	require.Error(t, err)
}

func TestOpenRegionMissingFails(t *testing.T) {
	_, err := rpc.OpenRegion(t.TempDir(), "does-not-exist")
	require.Error(t, err)
}
