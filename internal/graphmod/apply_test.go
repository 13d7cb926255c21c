package graphmod_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/graphmod"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

func nodeIDFor(t *testing.T, minor int) idgen.NodeID {
	t.Helper()
	id, err := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, minor)
	require.NoError(t, err)
	return id
}

func newGraphWithTopic(t *testing.T) (*graph.Graph, types.TopicID) {
	t.Helper()
	g := graph.New()
	topicID, err := g.AddTopic("t", nil)
	require.NoError(t, err)
	return g, topicID
}

func TestApplyAddsNodeAndEdgeInOneBatch(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)

	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.AddNode, Node: &types.Node{ID: a, Topics: map[types.TopicID]float64{topicID: 1}}},
		{Kind: graphmod.AddNode, Node: &types.Node{ID: b, Topics: map[types.TopicID]float64{topicID: 1}}},
		{Kind: graphmod.AddEdge, Edge: &types.Edge{ID: idgen.EdgeID{Dep: a, Sup: b}}},
	}}

	results, err := graphmod.Apply(g, batch)
	require.NoError(t, err)
	require.Len(t, results, 3)

	_, err = g.NodeByID(a)
	require.NoError(t, err)
	_, err = g.EdgeByID(idgen.EdgeID{Dep: a, Sup: b})
	require.NoError(t, err)
}

func TestApplyRejectsEntireBatchOnValidationFailure(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a := nodeIDFor(t, 1)
	missing := nodeIDFor(t, 99)

	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.AddNode, Node: &types.Node{ID: a, Topics: map[types.TopicID]float64{topicID: 1}}},
		{Kind: graphmod.AddEdge, Edge: &types.Edge{ID: idgen.EdgeID{Dep: a, Sup: missing}}},
	}}

	_, err := graphmod.Apply(g, batch)
	require.Error(t, err)
	var valErr *graphmod.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 1, valErr.RequestIdx)

	// Nothing from the batch should have been applied, including the
	// first request that would have succeeded on its own.
	_, err = g.NodeByID(a)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestApplyAddEdgeCanReferenceNodeAddedEarlierInBatch(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a, b := nodeIDFor(t, 1), nodeIDFor(t, 2)
	require.NoError(t, g.AddNode(&types.Node{ID: a, Topics: map[types.TopicID]float64{topicID: 1}}))

	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.AddNode, Node: &types.Node{ID: b, Topics: map[types.TopicID]float64{topicID: 1}}},
		{Kind: graphmod.AddEdge, Edge: &types.Edge{ID: idgen.EdgeID{Dep: a, Sup: b}}},
	}}

	_, err := graphmod.Apply(g, batch)
	require.NoError(t, err)
}

func TestApplyBatchTargetDates(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(&types.Node{ID: a, Topics: map[types.TopicID]float64{topicID: 1}}))

	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.BatchTargetDates, TargetDates: map[idgen.NodeID]int64{a: 1000}},
	}}
	_, err := graphmod.Apply(g, batch)
	require.NoError(t, err)

	got, err := g.NodeByID(a)
	require.NoError(t, err)
	require.NotNil(t, got.TargetDate)
	assert.Equal(t, int64(1000), *got.TargetDate)
}

func TestApplyListLifecycle(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a := nodeIDFor(t, 1)
	require.NoError(t, g.AddNode(&types.Node{ID: a, Topics: map[types.TopicID]float64{topicID: 1}}))

	batch := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.ListAdd, ListName: "watch", ListNodeID: a},
	}}
	_, err := graphmod.Apply(g, batch)
	require.NoError(t, err)
	list, err := g.List("watch")
	require.NoError(t, err)
	assert.Equal(t, []idgen.NodeID{a}, list.Items)

	batch = graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.ListRemove, ListName: "watch", ListNodeID: a},
	}}
	_, err = graphmod.Apply(g, batch)
	require.NoError(t, err)
	list, err = g.List("watch")
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	batch = graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.ListDelete, ListName: "watch"},
	}}
	_, err = graphmod.Apply(g, batch)
	require.NoError(t, err)
	_, err = g.List("watch")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
