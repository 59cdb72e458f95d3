package forms

import (
	"strings"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

// EvaluateCondition evaluates a structured condition tree against the flat
// response context. Conditions come from the form builder as data, so
// evaluation is total and pure: unknown operators and malformed nodes read
// as false, and compound nodes evaluate every child (no short-circuit side
// effects exist to avoid).
func EvaluateCondition(cond *domain.ConditionExpression, context map[string]any) bool {
	if cond == nil {
		return true
	}
	switch cond.Type {
	case domain.ConditionSimple:
		return evaluateSimple(cond, context)
	case domain.ConditionCompound:
		return evaluateCompound(cond, context)
	default:
		return false
	}
}

func evaluateCompound(cond *domain.ConditionExpression, context map[string]any) bool {
	if len(cond.Children) == 0 {
		return false
	}
	results := make([]bool, len(cond.Children))
	for i := range cond.Children {
		results[i] = EvaluateCondition(&cond.Children[i], context)
	}
	switch cond.Logic {
	case domain.LogicAnd:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case domain.LogicOr:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evaluateSimple(cond *domain.ConditionExpression, context map[string]any) bool {
	actual := context[cond.FieldID]
	switch cond.Operator {
	case domain.OpEquals:
		return looseEqual(actual, cond.Value)
	case domain.OpNotEquals:
		return !looseEqual(actual, cond.Value)
	case domain.OpContains:
		return strings.Contains(foldCase(actual), foldCase(cond.Value))
	case domain.OpNotContains:
		return !strings.Contains(foldCase(actual), foldCase(cond.Value))
	case domain.OpStartsWith:
		return strings.HasPrefix(foldCase(actual), foldCase(cond.Value))
	case domain.OpEndsWith:
		return strings.HasSuffix(foldCase(actual), foldCase(cond.Value))
	case domain.OpGreaterThan, domain.OpLessThan, domain.OpGreaterOrEqual, domain.OpLessOrEqual:
		return numericCompare(cond.Operator, actual, cond.Value)
	case domain.OpIsEmpty:
		return ValueEmpty(actual)
	case domain.OpIsNotEmpty:
		return !ValueEmpty(actual)
	case domain.OpIn:
		return inList(actual, cond.Values)
	case domain.OpNotIn:
		return !inList(actual, cond.Values)
	default:
		return false
	}
}

func numericCompare(op domain.ConditionOperator, actual, expected any) bool {
	a, aok := asNumber(actual)
	e, eok := asNumber(expected)
	if !aok || !eok {
		return false
	}
	switch op {
	case domain.OpGreaterThan:
		return a > e
	case domain.OpLessThan:
		return a < e
	case domain.OpGreaterOrEqual:
		return a >= e
	case domain.OpLessOrEqual:
		return a <= e
	}
	return false
}

func inList(actual any, values []any) bool {
	for _, v := range values {
		if looseEqual(actual, v) {
			return true
		}
	}
	return false
}

func foldCase(v any) string {
	return strings.ToLower(asString(v))
}

// ValueEmpty reports whether a response value counts as "not answered":
// nil, blank string, or an empty list. Zero and false are answers.
func ValueEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	default:
		return false
	}
}
