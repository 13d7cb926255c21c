package tdengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/tdengine"
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

func addNode(t *testing.T, g *graph.Graph, topicID types.TopicID, n *types.Node) {
	t.Helper()
	require.NoError(t, g.AddNode(n))
}

func TestEffectiveTargetDateFixedIsOwnOrigin(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	id := nodeIDFor(t, 1)
	td := int64(5000)
	addNode(t, g, topicID, &types.Node{ID: id, TDProperty: types.TDFixed, TargetDate: &td, Topics: map[types.TopicID]float64{topicID: 1}})

	eff, err := tdengine.EffectiveTargetDate(g, id)
	require.NoError(t, err)
	assert.Equal(t, td, eff.TargetDate)
	assert.Equal(t, id, eff.Origin)
	assert.Equal(t, types.TDFixed, eff.OriginProperty)
}

func TestEffectiveTargetDateCompletedNodeIsAlwaysTMax(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	id := nodeIDFor(t, 1)
	td := int64(5000)
	addNode(t, g, topicID, &types.Node{ID: id, TDProperty: types.TDFixed, TargetDate: &td, Completion: 1, Topics: map[types.TopicID]float64{topicID: 1}})

	eff, err := tdengine.EffectiveTargetDate(g, id)
	require.NoError(t, err)
	assert.Equal(t, types.TMax, eff.TargetDate)
}

func TestEffectiveTargetDateInheritFollowsEarliestSuperior(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	dep := nodeIDFor(t, 1)
	supEarly, supLate := nodeIDFor(t, 2), nodeIDFor(t, 3)
	earlyTD, lateTD := int64(1000), int64(9000)

	addNode(t, g, topicID, &types.Node{ID: dep, TDProperty: types.TDInherit, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: supEarly, TDProperty: types.TDFixed, TargetDate: &earlyTD, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: supLate, TDProperty: types.TDFixed, TargetDate: &lateTD, Topics: map[types.TopicID]float64{topicID: 1}})
	require.NoError(t, g.AddEdge(&types.Edge{ID: idgen.EdgeID{Dep: dep, Sup: supEarly}}))
	require.NoError(t, g.AddEdge(&types.Edge{ID: idgen.EdgeID{Dep: dep, Sup: supLate}}))

	eff, err := tdengine.EffectiveTargetDate(g, dep)
	require.NoError(t, err)
	assert.Equal(t, earlyTD, eff.TargetDate)
	assert.Equal(t, supEarly, eff.Origin)
}

func TestEffectiveTargetDateInheritWithNoSuperiorsContributesTMax(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	id := nodeIDFor(t, 1)
	addNode(t, g, topicID, &types.Node{ID: id, TDProperty: types.TDInherit, Topics: map[types.TopicID]float64{topicID: 1}})

	eff, err := tdengine.EffectiveTargetDate(g, id)
	require.NoError(t, err)
	assert.Equal(t, types.TMax, eff.TargetDate)
}

func TestEffectiveTargetDateInheritChainExceedingDepthReportsCycle(t *testing.T) {
	g, topicID := newGraphWithTopic(t)

	// A chain of MaxInheritDepth+2 inherit nodes, each depending on the
	// next, none terminating in a concrete origin: resolveInherit must
	// stop recursing rather than loop forever.
	ids := make([]idgen.NodeID, tdengine.MaxInheritDepth+2)
	for i := range ids {
		ids[i] = nodeIDFor(t, i+1)
		addNode(t, g, topicID, &types.Node{ID: ids[i], TDProperty: types.TDInherit, Topics: map[types.TopicID]float64{topicID: 1}})
	}
	for i := 0; i < len(ids)-1; i++ {
		require.NoError(t, g.AddEdge(&types.Edge{ID: idgen.EdgeID{Dep: ids[i], Sup: ids[i+1]}}))
	}

	_, err := tdengine.EffectiveTargetDate(g, ids[0])
	assert.ErrorIs(t, err, tdengine.ErrInheritCycle)
}

func TestIncompleteByEffectiveTargetDateSortsAndExcludesComplete(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	a, b, c := nodeIDFor(t, 1), nodeIDFor(t, 2), nodeIDFor(t, 3)
	tdA, tdB := int64(2000), int64(1000)
	addNode(t, g, topicID, &types.Node{ID: a, TDProperty: types.TDFixed, TargetDate: &tdA, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: b, TDProperty: types.TDFixed, TargetDate: &tdB, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: c, TDProperty: types.TDFixed, TargetDate: &tdA, Completion: 1, Topics: map[types.TopicID]float64{topicID: 1}})

	ranked, err := tdengine.IncompleteByEffectiveTargetDate(g)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, b, ranked[0].Node.ID)
	assert.Equal(t, a, ranked[1].Node.ID)
}

func TestShortlistCombinesRecentListAndIncompleteRanking(t *testing.T) {
	g, topicID := newGraphWithTopic(t)
	recentOnly := nodeIDFor(t, 1)
	early, late := nodeIDFor(t, 2), nodeIDFor(t, 3)
	tdEarly, tdLate := int64(1000), int64(9000)

	addNode(t, g, topicID, &types.Node{ID: recentOnly, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: early, TDProperty: types.TDFixed, TargetDate: &tdEarly, Topics: map[types.TopicID]float64{topicID: 1}})
	addNode(t, g, topicID, &types.Node{ID: late, TDProperty: types.TDFixed, TargetDate: &tdLate, Topics: map[types.TopicID]float64{topicID: 1}})
	require.NoError(t, g.AddToList(types.ListRecent, recentOnly))

	out, err := tdengine.Shortlist(g, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []idgen.NodeID{recentOnly, early}, out)
}

func TestRepeatInstancesAdvancesByPatternUntilHorizon(t *testing.T) {
	start := int64(0)
	n := &types.Node{
		ID:         nodeIDFor(t, 1),
		Repeats:    true,
		TDPattern:  types.PatternDaily,
		TDEvery:    2,
		TargetDate: &start,
	}

	horizon := int64(7 * 24 * 3600)
	instances, err := tdengine.RepeatInstances(n, horizon)
	require.NoError(t, err)
	require.True(t, len(instances) > 1)
	assert.Equal(t, 0, instances[0].Iteration)
	assert.Equal(t, start, instances[0].TargetDate)
	for i := 1; i < len(instances); i++ {
		assert.True(t, instances[i].TargetDate > instances[i-1].TargetDate)
		assert.True(t, instances[i].TargetDate <= horizon)
	}
}

func TestRepeatInstancesNonRepeatingReturnsNil(t *testing.T) {
	td := int64(1000)
	n := &types.Node{ID: nodeIDFor(t, 1), Repeats: false, TargetDate: &td}
	instances, err := tdengine.RepeatInstances(n, 100000)
	require.NoError(t, err)
	assert.Nil(t, instances)
}
