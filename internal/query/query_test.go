package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/query"
	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

func nodeIDFor(t *testing.T, minor int) idgen.NodeID {
	t.Helper()
	id, err := idgen.NewNodeIDFromCalendar(2026, 1, 1, 0, 0, 0, minor)
	require.NoError(t, err)
	return id
}

func TestParseSimpleComparison(t *testing.T) {
	ast, err := query.Parse("completion>0.5")
	require.NoError(t, err)
	cmp, ok := ast.(*query.ComparisonNode)
	require.True(t, ok)
	assert.Equal(t, "completion", cmp.Field)
	assert.Equal(t, query.OpGreater, cmp.Op)
	assert.Equal(t, "0.5", cmp.Value)
}

func TestParseAndOrNotPrecedence(t *testing.T) {
	ast, err := query.Parse("tdproperty=fixed AND NOT completion=1 OR repeats=true")
	require.NoError(t, err)
	// AND/NOT bind tighter than OR: this parses as
	// (tdproperty=fixed AND NOT completion=1) OR repeats=true
	or, ok := ast.(*query.OrNode)
	require.True(t, ok)
	and, ok := or.Left.(*query.AndNode)
	require.True(t, ok)
	_, ok = and.Right.(*query.NotNode)
	assert.True(t, ok)
}

func TestParseParenthesizedGrouping(t *testing.T) {
	ast, err := query.Parse("(tdproperty=fixed OR tdproperty=exact) AND completion<1")
	require.NoError(t, err)
	and, ok := ast.(*query.AndNode)
	require.True(t, ok)
	_, ok = and.Left.(*query.OrNode)
	assert.True(t, ok)
}

func TestParseRange(t *testing.T) {
	ast, err := query.Parse("targetdate=[NOW,MAX]")
	require.NoError(t, err)
	r, ok := ast.(*query.RangeNode)
	require.True(t, ok)
	assert.Equal(t, "NOW", r.Lower)
	assert.Equal(t, "MAX", r.Upper)
}

func TestParseRejectsUnknownTrailingTokens(t *testing.T) {
	_, err := query.Parse("completion=1 )")
	assert.Error(t, err)
}

func TestParseRejectsEmptyQuery(t *testing.T) {
	_, err := query.Parse("")
	assert.Error(t, err)
}

func TestEvaluatorCompileRejectsUnknownField(t *testing.T) {
	e := query.NewEvaluator(time.Now())
	_, err := e.Compile("bogus=1")
	assert.Error(t, err)
}

func TestEvaluatorCompletionComparison(t *testing.T) {
	e := query.NewEvaluator(time.Now())
	pred, err := e.Compile("completion<1")
	require.NoError(t, err)
	assert.True(t, pred(&types.Node{Completion: 0.5}, 0))
	assert.False(t, pred(&types.Node{Completion: 1}, 0))
}

func TestEvaluatorLowerUpperCompletionAreInclusive(t *testing.T) {
	e := query.NewEvaluator(time.Now())
	pred, err := e.Compile("lower_completion>=0.5 AND upper_completion<=0.9")
	require.NoError(t, err)
	assert.True(t, pred(&types.Node{Completion: 0.5}, 0))
	assert.True(t, pred(&types.Node{Completion: 0.9}, 0))
	assert.False(t, pred(&types.Node{Completion: 0.95}, 0))
}

func TestEvaluatorTargetDateNowResolvesToEvaluatorInstant(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	e := query.NewEvaluator(now)
	pred, err := e.Compile("targetdate=[NOW,MAX]")
	require.NoError(t, err)
	assert.True(t, pred(&types.Node{}, now.Unix()+10))
	assert.False(t, pred(&types.Node{}, now.Unix()-10))
}

func TestEvaluatorTDPropertyAndNotEquals(t *testing.T) {
	e := query.NewEvaluator(time.Now())
	pred, err := e.Compile("tdproperty!=fixed")
	require.NoError(t, err)
	assert.False(t, pred(&types.Node{TDProperty: types.TDFixed}, 0))
	assert.True(t, pred(&types.Node{TDProperty: types.TDVariable}, 0))
}

func TestEvaluatorTitleIsCaseInsensitiveSubstring(t *testing.T) {
	e := query.NewEvaluator(time.Now())
	pred, err := e.Compile(`title="Report"`)
	require.NoError(t, err)
	assert.True(t, pred(&types.Node{Description: "quarterly report draft"}, 0))
	assert.False(t, pred(&types.Node{Description: "unrelated"}, 0))
}

func TestEvaluateAllFiltersRankedNodesPreservingOrder(t *testing.T) {
	a, b, c := nodeIDFor(t, 1), nodeIDFor(t, 2), nodeIDFor(t, 3)
	ranked := []tdengine.Ranked{
		{Node: &types.Node{ID: a, Completion: 0.2}, Effective: tdengine.Effective{TargetDate: 100}},
		{Node: &types.Node{ID: b, Completion: 0.8}, Effective: tdengine.Effective{TargetDate: 200}},
		{Node: &types.Node{ID: c, Completion: 0.5}, Effective: tdengine.Effective{TargetDate: 300}},
	}

	e := query.NewEvaluator(time.Now())
	pred, err := e.Compile("completion>=0.5")
	require.NoError(t, err)

	matched := query.EvaluateAll(ranked, pred)
	require.Len(t, matched, 2)
	assert.Equal(t, b, matched[0].ID)
	assert.Equal(t, c, matched[1].ID)
}
