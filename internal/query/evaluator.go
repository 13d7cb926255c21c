package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

// Predicate is a compiled query: true for Nodes that match, given the
// Node's effective target date (spec §3 effective_targetdate).
type Predicate func(node *types.Node, effectiveTD int64) bool

// Evaluator compiles a query AST into a Predicate, resolving the NOW
// token against a fixed instant so repeated evaluation is stable.
type Evaluator struct {
	now time.Time
}

// NewEvaluator returns an Evaluator that resolves the NOW token to t.
func NewEvaluator(now time.Time) *Evaluator {
	return &Evaluator{now: now}
}

// Compile parses query and returns the compiled Predicate (spec §6
// "Filter keys for nodes_match/NNLadd_match").
func (e *Evaluator) Compile(query string) (Predicate, error) {
	ast, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return e.build(ast)
}

func (e *Evaluator) build(node Node) (Predicate, error) {
	switch n := node.(type) {
	case *AndNode:
		left, err := e.build(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.build(n.Right)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool { return left(nd, td) && right(nd, td) }, nil
	case *OrNode:
		left, err := e.build(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.build(n.Right)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool { return left(nd, td) || right(nd, td) }, nil
	case *NotNode:
		operand, err := e.build(n.Operand)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool { return !operand(nd, td) }, nil
	case *ComparisonNode:
		return e.buildComparison(n)
	case *RangeNode:
		return e.buildRange(n)
	default:
		return nil, fmt.Errorf("unsupported query node %T", node)
	}
}

func (e *Evaluator) resolveTDToken(v string) (int64, bool) {
	switch strings.ToUpper(v) {
	case "NOW":
		return e.now.Unix(), true
	case "MIN":
		return 0, true
	case "MAX":
		return types.TMax, true
	default:
		return 0, false
	}
}

func (e *Evaluator) resolveOrParseTD(v string) (int64, error) {
	if resolved, ok := e.resolveTDToken(v); ok {
		return resolved, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func (e *Evaluator) buildComparison(c *ComparisonNode) (Predicate, error) {
	field := strings.ToLower(c.Field)
	if !KnownFields[field] {
		return nil, fmt.Errorf("unknown query field %q", c.Field)
	}
	switch field {
	case "completion", "lower_completion", "upper_completion":
		v, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid completion value %q: %w", c.Value, err)
		}
		return completionPredicate(field, c.Op, v), nil

	case "tdproperty", "tdproperty_a", "tdproperty_b":
		prop, err := parseTDProperty(c.Value)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool {
			matches := nd.TDProperty == prop
			if c.Op == OpNotEquals {
				return !matches
			}
			return matches
		}, nil

	case "tdpattern":
		pat, err := parseTDPattern(c.Value)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool {
			matches := nd.TDPattern == pat
			if c.Op == OpNotEquals {
				return !matches
			}
			return matches
		}, nil

	case "targetdate", "lower_targetdate", "upper_targetdate":
		ts, err := e.resolveOrParseTD(c.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid target date value %q: %w", c.Value, err)
		}
		return targetDatePredicate(field, c.Op, ts), nil

	case "repeats":
		b, err := strconv.ParseBool(c.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid repeats value %q: %w", c.Value, err)
		}
		return func(nd *types.Node, td int64) bool {
			matches := nd.Repeats == b
			if c.Op == OpNotEquals {
				return !matches
			}
			return matches
		}, nil

	case "id":
		return func(nd *types.Node, td int64) bool {
			matches := nd.ID.String() == c.Value
			if c.Op == OpNotEquals {
				return !matches
			}
			return matches
		}, nil

	case "title":
		needle := strings.ToLower(c.Value)
		return func(nd *types.Node, td int64) bool {
			matches := strings.Contains(strings.ToLower(nd.Description), needle)
			if c.Op == OpNotEquals {
				return !matches
			}
			return matches
		}, nil

	default:
		return nil, fmt.Errorf("field %q is not yet supported by the evaluator", field)
	}
}

func (e *Evaluator) buildRange(r *RangeNode) (Predicate, error) {
	field := strings.ToLower(r.Field)
	if !KnownFields[field] {
		return nil, fmt.Errorf("unknown query field %q", r.Field)
	}
	switch field {
	case "completion":
		lo, err := strconv.ParseFloat(r.Lower, 64)
		if err != nil {
			return nil, err
		}
		hi, err := strconv.ParseFloat(r.Upper, 64)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool { return nd.Completion >= lo && nd.Completion <= hi }, nil
	case "targetdate":
		lo, err := e.resolveOrParseTD(r.Lower)
		if err != nil {
			return nil, err
		}
		hi, err := e.resolveOrParseTD(r.Upper)
		if err != nil {
			return nil, err
		}
		return func(nd *types.Node, td int64) bool { return td >= lo && td <= hi }, nil
	default:
		return nil, fmt.Errorf("field %q does not support range syntax", field)
	}
}

func completionPredicate(field string, op ComparisonOp, v float64) Predicate {
	switch field {
	case "lower_completion":
		return func(nd *types.Node, td int64) bool { return nd.Completion >= v }
	case "upper_completion":
		return func(nd *types.Node, td int64) bool { return nd.Completion <= v }
	default:
		return func(nd *types.Node, td int64) bool { return compareFloat(nd.Completion, op, v) }
	}
}

func targetDatePredicate(field string, op ComparisonOp, ts int64) Predicate {
	switch field {
	case "lower_targetdate":
		return func(nd *types.Node, td int64) bool { return td >= ts }
	case "upper_targetdate":
		return func(nd *types.Node, td int64) bool { return td <= ts }
	default:
		return func(nd *types.Node, td int64) bool { return compareInt(td, op, ts) }
	}
}

func compareFloat(a float64, op ComparisonOp, b float64) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpLess:
		return a < b
	case OpLessEq:
		return a <= b
	case OpGreater:
		return a > b
	case OpGreaterEq:
		return a >= b
	default:
		return false
	}
}

func compareInt(a int64, op ComparisonOp, b int64) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpLess:
		return a < b
	case OpLessEq:
		return a <= b
	case OpGreater:
		return a > b
	case OpGreaterEq:
		return a >= b
	default:
		return false
	}
}

func parseTDProperty(v string) (types.TDProperty, error) {
	switch strings.ToLower(v) {
	case "unspecified":
		return types.TDUnspecified, nil
	case "inherit":
		return types.TDInherit, nil
	case "variable":
		return types.TDVariable, nil
	case "fixed":
		return types.TDFixed, nil
	case "exact":
		return types.TDExact, nil
	default:
		return 0, fmt.Errorf("unknown td_property %q", v)
	}
}

func parseTDPattern(v string) (types.TDPattern, error) {
	switch strings.ToLower(v) {
	case "daily":
		return types.PatternDaily, nil
	case "workdays":
		return types.PatternWorkdays, nil
	case "weekly":
		return types.PatternWeekly, nil
	case "biweekly":
		return types.PatternBiweekly, nil
	case "monthly":
		return types.PatternMonthly, nil
	case "endofmonthoffset":
		return types.PatternEndOfMonthOffset, nil
	case "yearly":
		return types.PatternYearly, nil
	case "span":
		return types.PatternSpan, nil
	case "nonperiodic":
		return types.PatternNonperiodic, nil
	default:
		return 0, fmt.Errorf("unknown td_pattern %q", v)
	}
}

// EvaluateAll runs pred over every incomplete Node's effective target
// date, as computed by tdengine, returning the matching Nodes in the
// same order tdengine ranks them (spec §6 "nodes_match").
func EvaluateAll(ranked []tdengine.Ranked, pred Predicate) []*types.Node {
	var out []*types.Node
	for i := range ranked {
		r := &ranked[i]
		if pred(r.Node, r.TargetDate) {
			out = append(out, r.Node)
		}
	}
	return out
}
