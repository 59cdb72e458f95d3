package forms

import (
	"testing"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

func TestEvaluateConditionSimple(t *testing.T) {
	ctx := map[string]any{
		"enrollmentType": "International",
		"age":            float64(12),
		"siblings":       []any{"Mia", "Leo"},
		"notes":          "",
		"hasAllergies":   false,
	}

	cases := []struct {
		name string
		cond *domain.ConditionExpression
		want bool
	}{
		{
			name: "equals",
			cond: domain.Simple("enrollmentType", domain.OpEquals, "International"),
			want: true,
		},
		{
			name: "not_equals",
			cond: domain.Simple("enrollmentType", domain.OpNotEquals, "Domestic"),
			want: true,
		},
		{
			name: "contains_case_insensitive",
			cond: domain.Simple("enrollmentType", domain.OpContains, "NATIONAL"),
			want: true,
		},
		{
			name: "not_contains",
			cond: domain.Simple("enrollmentType", domain.OpNotContains, "domestic"),
			want: true,
		},
		{
			name: "starts_with",
			cond: domain.Simple("enrollmentType", domain.OpStartsWith, "inter"),
			want: true,
		},
		{
			name: "ends_with",
			cond: domain.Simple("enrollmentType", domain.OpEndsWith, "ional"),
			want: true,
		},
		{
			name: "greater_than",
			cond: domain.Simple("age", domain.OpGreaterThan, 10),
			want: true,
		},
		{
			name: "less_or_equal_false",
			cond: domain.Simple("age", domain.OpLessOrEqual, 11),
			want: false,
		},
		{
			name: "is_empty_blank_string",
			cond: domain.Simple("notes", domain.OpIsEmpty, nil),
			want: true,
		},
		{
			name: "is_empty_false_is_an_answer",
			cond: domain.Simple("hasAllergies", domain.OpIsEmpty, nil),
			want: false,
		},
		{
			name: "is_not_empty_list",
			cond: domain.Simple("siblings", domain.OpIsNotEmpty, nil),
			want: true,
		},
		{
			name: "in_list",
			cond: &domain.ConditionExpression{
				Type: domain.ConditionSimple, FieldID: "enrollmentType",
				Operator: domain.OpIn, Values: []any{"Domestic", "International"},
			},
			want: true,
		},
		{
			name: "not_in_list",
			cond: &domain.ConditionExpression{
				Type: domain.ConditionSimple, FieldID: "enrollmentType",
				Operator: domain.OpNotIn, Values: []any{"Domestic", "Exchange"},
			},
			want: true,
		},
		{
			name: "unknown_operator_is_false",
			cond: domain.Simple("age", domain.ConditionOperator("matches"), 12),
			want: false,
		},
		{
			name: "nil_condition_is_true",
			cond: nil,
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateCondition(tc.cond, ctx); got != tc.want {
				t.Fatalf("EvaluateCondition=%v, want %v", got, tc.want)
			}
		})
	}
}

// Compound evaluation must equal the plain conjunction/disjunction of the
// children's individual results.
func TestEvaluateConditionCompound(t *testing.T) {
	ctx := map[string]any{"a": "x", "b": float64(2)}

	childTrue := *domain.Simple("a", domain.OpEquals, "x")
	childFalse := *domain.Simple("b", domain.OpGreaterThan, 5)

	combos := []struct {
		name     string
		logic    domain.CompoundOperator
		children []domain.ConditionExpression
		want     bool
	}{
		{"and_all_true", domain.LogicAnd, []domain.ConditionExpression{childTrue, childTrue}, true},
		{"and_one_false", domain.LogicAnd, []domain.ConditionExpression{childTrue, childFalse}, false},
		{"or_one_true", domain.LogicOr, []domain.ConditionExpression{childFalse, childTrue}, true},
		{"or_all_false", domain.LogicOr, []domain.ConditionExpression{childFalse, childFalse}, false},
		{"empty_children", domain.LogicAnd, nil, false},
	}

	for _, tc := range combos {
		t.Run(tc.name, func(t *testing.T) {
			cond := &domain.ConditionExpression{Type: domain.ConditionCompound, Logic: tc.logic, Children: tc.children}
			got := EvaluateCondition(cond, ctx)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}

			// cross-check against children's individual evaluations
			expected := tc.logic == domain.LogicAnd
			for i := range tc.children {
				r := EvaluateCondition(&tc.children[i], ctx)
				if tc.logic == domain.LogicAnd {
					expected = expected && r
				} else {
					expected = expected || r
				}
			}
			if len(tc.children) == 0 {
				expected = false
			}
			if got != expected {
				t.Fatalf("compound result %v differs from folded children %v", got, expected)
			}
		})
	}

	t.Run("nested", func(t *testing.T) {
		cond := domain.AllOf(childTrue, *domain.AnyOf(childFalse, childTrue))
		if !EvaluateCondition(cond, ctx) {
			t.Fatalf("nested AND(true, OR(false, true)) should be true")
		}
	})
}
