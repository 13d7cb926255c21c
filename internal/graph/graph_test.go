package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

func nodeIDFor(t *testing.T, minor int) idgen.NodeID {
	t.Helper()
	id, err := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, minor)
	require.NoError(t, err)
	return id
}

func newNode(id idgen.NodeID, topicID types.TopicID) *types.Node {
	return &types.Node{ID: id, Topics: map[types.TopicID]float64{topicID: 1}}
}

func TestAddNodeRequiresAtLeastOneTopic(t *testing.T) {
	g := graph.New()
	n := &types.Node{ID: nodeIDFor(t, 1)}
	err := g.AddNode(n)
	assert.ErrorIs(t, err, types.ErrNoTopics)
}

func TestAddNodeRejectsUnknownTopic(t *testing.T) {
	g := graph.New()
	n := newNode(nodeIDFor(t, 1), 99)
	err := g.AddNode(n)
	assert.ErrorIs(t, err, types.ErrUnknownTopic)
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	id := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(newNode(id, topicID)))
	err = g.AddNode(newNode(id, topicID))
	assert.ErrorIs(t, err, types.ErrIDCollision)
}

func TestAddEdgeRequiresBothEndpoints(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	a := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(newNode(a, topicID)))

	b := nodeIDFor(t, 2)
	err = g.AddEdge(&types.Edge{ID: idgen.EdgeID{Dep: a, Sup: b}})
	assert.ErrorIs(t, err, types.ErrEndpointMissing)
}

func TestAddEdgeRejectsDuplicate(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)
	require.NoError(t, g.AddNode(newNode(a, topicID)))
	require.NoError(t, g.AddNode(newNode(b, topicID)))

	edge := &types.Edge{ID: idgen.EdgeID{Dep: a, Sup: b}}
	require.NoError(t, g.AddEdge(edge))
	err = g.AddEdge(edge)
	assert.ErrorIs(t, err, types.ErrDuplicateEdge)
}

func TestRemoveNodeAlsoRemovesIncidentEdges(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)
	require.NoError(t, g.AddNode(newNode(a, topicID)))
	require.NoError(t, g.AddNode(newNode(b, topicID)))
	edge := &types.Edge{ID: idgen.EdgeID{Dep: a, Sup: b}}
	require.NoError(t, g.AddEdge(edge))

	require.NoError(t, g.RemoveNode(a))
	assert.Empty(t, g.DepEdgesOf(b))
	_, err = g.EdgeByID(edge.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEditNodePatchAppliesOnlyTouchedFields(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	id := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(&types.Node{ID: id, Description: "old", EffortSeconds: 10, Topics: map[types.TopicID]float64{topicID: 1}}))

	newDesc := "new"
	require.NoError(t, g.EditNode(id, graph.NodePatch{Description: &newDesc}))

	got, err := g.NodeByID(id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, 10.0, got.EffortSeconds)
}

func TestEditNodeClearTargetDate(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	id := nodeIDFor(t, 1)
	td := int64(1000)
	require.NoError(t, g.AddNode(&types.Node{ID: id, TargetDate: &td, Topics: map[types.TopicID]float64{topicID: 1}}))

	require.NoError(t, g.EditNode(id, graph.NodePatch{ClearTargetDate: true}))
	got, err := g.NodeByID(id)
	require.NoError(t, err)
	assert.Nil(t, got.TargetDate)
}

func TestEditNodeRejectsEmptyTopicsPatch(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	id := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(newNode(id, topicID)))

	err = g.EditNode(id, graph.NodePatch{Topics: map[types.TopicID]float64{}})
	assert.ErrorIs(t, err, types.ErrNoTopics)
}

func TestListCopyListRespectsMaxSize(t *testing.T) {
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	a, b, c := nodeIDFor(t, 1), nodeIDFor(t, 2), nodeIDFor(t, 3)
	for _, id := range []idgen.NodeID{a, b, c} {
		require.NoError(t, g.AddNode(newNode(id, topicID)))
	}
	require.NoError(t, g.AddToList("src", a))
	require.NoError(t, g.AddToList("src", b))
	require.NoError(t, g.AddToList("src", c))

	require.NoError(t, g.CopyList("src", "dst", 2))
	dst, err := g.List("dst")
	require.NoError(t, err)
	assert.Len(t, dst.Items, 2)
}
