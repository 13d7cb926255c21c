package persist_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/persist"
	"github.com/formalizer/fzcore/internal/types"
)

func newTestNode(t *testing.T, minor int, description string, topicID types.TopicID) *types.Node {
	t.Helper()
	id, err := idgen.NewNodeIDFromCalendar(2026, 7, 31, 10, 0, 0, minor)
	require.NoError(t, err)
	return &types.Node{
		ID:            id,
		Description:   description,
		EffortSeconds: 3600,
		Completion:    0.25,
		TDProperty:    types.TDVariable,
		Topics:        map[types.TopicID]float64{topicID: 0.5},
	}
}

func TestStoreCheckpointAndLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fzcore.db")
	store, err := persist.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	g := graph.New()
	topicID, err := g.AddTopic("chores", map[string]float64{"clean": 0.8})
	require.NoError(t, err)

	a := newTestNode(t, 1, "buy groceries", topicID)
	b := newTestNode(t, 2, "cook dinner", topicID)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge(&types.Edge{
		ID:         idgen.EdgeID{Dep: a.ID, Sup: b.ID},
		Dependency: 1,
	}))
	g.PutList(types.NewNamedNodeList(types.ListShortlist, 5, true, true, false))
	require.NoError(t, g.AddToList(types.ListShortlist, a.ID))

	require.NoError(t, store.Checkpoint(g))

	loaded, err := store.Load()
	require.NoError(t, err)

	gotA, err := loaded.NodeByID(a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Description, gotA.Description)
	require.Equal(t, a.Completion, gotA.Completion)
	require.InDelta(t, 0.5, gotA.Topics[topicID], 1e-9)

	require.True(t, loaded.TopicExists(topicID))
	gotTopicID, err := loaded.FindTopicByTag("chores")
	require.NoError(t, err)
	require.Equal(t, topicID, gotTopicID)

	edges := loaded.DepEdgesOf(a.ID)
	require.Len(t, edges, 1)
	require.Equal(t, b.ID, edges[0].Sup())

	list, err := loaded.List(types.ListShortlist)
	require.NoError(t, err)
	require.Equal(t, []idgen.NodeID{a.ID}, list.Items)
}

func TestStoreCheckpointReplacesPriorContents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fzcore.db")
	store, err := persist.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	g1 := graph.New()
	topicID1, err := g1.AddTopic("misc", nil)
	require.NoError(t, err)
	require.NoError(t, g1.AddNode(newTestNode(t, 1, "first generation", topicID1)))
	require.NoError(t, store.Checkpoint(g1))

	g2 := graph.New()
	topicID2, err := g2.AddTopic("misc", nil)
	require.NoError(t, err)
	require.NoError(t, g2.AddNode(newTestNode(t, 3, "second generation", topicID2)))
	require.NoError(t, store.Checkpoint(g2))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.AllNodeIDs(), 1)
	require.Equal(t, "second generation", loaded.AllNodes()[0].Description)
}
