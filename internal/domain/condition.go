package domain

// ConditionType discriminates the two variants of ConditionExpression.
type ConditionType string

const (
	ConditionSimple   ConditionType = "simple"
	ConditionCompound ConditionType = "compound"
)

// ConditionOperator is the closed operator set for simple conditions.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "equals"
	OpNotEquals      ConditionOperator = "not_equals"
	OpContains       ConditionOperator = "contains"
	OpNotContains    ConditionOperator = "not_contains"
	OpStartsWith     ConditionOperator = "starts_with"
	OpEndsWith       ConditionOperator = "ends_with"
	OpGreaterThan    ConditionOperator = "greater_than"
	OpLessThan       ConditionOperator = "less_than"
	OpGreaterOrEqual ConditionOperator = "greater_or_equal"
	OpLessOrEqual    ConditionOperator = "less_or_equal"
	OpIsEmpty        ConditionOperator = "is_empty"
	OpIsNotEmpty     ConditionOperator = "is_not_empty"
	OpIn             ConditionOperator = "in"
	OpNotIn          ConditionOperator = "not_in"
)

// CompoundOperator joins the children of a compound condition.
type CompoundOperator string

const (
	LogicAnd CompoundOperator = "and"
	LogicOr  CompoundOperator = "or"
)

// ConditionExpression is a tagged union: Type selects which variant's
// fields are meaningful. Conditions are structured data authored in the
// form builder, never free text, so evaluating them cannot execute
// anything.
type ConditionExpression struct {
	Type ConditionType `json:"type"`

	// simple
	FieldID  string            `json:"field_id,omitempty"`
	Operator ConditionOperator `json:"operator,omitempty"`
	Value    any               `json:"value,omitempty"`
	// in / not_in compare against Values rather than Value.
	Values []any `json:"values,omitempty"`

	// compound
	Logic    CompoundOperator      `json:"logic,omitempty"`
	Children []ConditionExpression `json:"children,omitempty"`
}

// Simple builds a simple single-field condition.
func Simple(fieldID string, op ConditionOperator, value any) *ConditionExpression {
	return &ConditionExpression{Type: ConditionSimple, FieldID: fieldID, Operator: op, Value: value}
}

// AllOf builds a compound AND condition.
func AllOf(children ...ConditionExpression) *ConditionExpression {
	return &ConditionExpression{Type: ConditionCompound, Logic: LogicAnd, Children: children}
}

// AnyOf builds a compound OR condition.
func AnyOf(children ...ConditionExpression) *ConditionExpression {
	return &ConditionExpression{Type: ConditionCompound, Logic: LogicOr, Children: children}
}
