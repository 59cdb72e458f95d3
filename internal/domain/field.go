package domain

// FieldType is the closed set of field kinds a tenant can place on a form.
// Dispatch is always on this tag, never on the shape of the config blob.
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeEmail         FieldType = "email"
	FieldTypePhone         FieldType = "phone"
	FieldTypeURL           FieldType = "url"
	FieldTypeNumber        FieldType = "number"
	FieldTypeCurrency      FieldType = "currency"
	FieldTypeDate          FieldType = "date"
	FieldTypeDateTime      FieldType = "datetime"
	FieldTypeTime          FieldType = "time"
	FieldTypeDateOfBirth   FieldType = "date_of_birth"
	FieldTypeSelect        FieldType = "select"
	FieldTypeMultiSelect   FieldType = "multi_select"
	FieldTypeRadio         FieldType = "radio"
	FieldTypeCheckbox      FieldType = "checkbox"
	FieldTypeCheckboxGroup FieldType = "checkbox_group"
	FieldTypeYesNo         FieldType = "yes_no"
	FieldTypeFile          FieldType = "file"
	FieldTypeImage         FieldType = "image"
	FieldTypeSignature     FieldType = "signature"
	FieldTypeAddress       FieldType = "address"
	FieldTypePersonName    FieldType = "person_name"
	FieldTypeConsent       FieldType = "consent"
	FieldTypeHeading       FieldType = "heading"
	FieldTypeParagraph     FieldType = "paragraph"
	FieldTypeCalculated    FieldType = "calculated"
	FieldTypeHidden        FieldType = "hidden"
)

// DisplayOnly reports whether the field renders content but never captures
// a value. Display-only fields are the one case allowed to have neither a
// mapped destination nor a custom data key.
func (t FieldType) DisplayOnly() bool {
	return t == FieldTypeHeading || t == FieldTypeParagraph
}

// Selection reports whether the field's value comes from a configured
// option list.
func (t FieldType) Selection() bool {
	switch t {
	case FieldTypeSelect, FieldTypeMultiSelect, FieldTypeRadio, FieldTypeCheckboxGroup:
		return true
	}
	return false
}

// FieldOption is one entry of a selection field's option list.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldValidationRules is the per-field built-in rule set. Nil pointers mean
// the rule is not configured. CustomExpression is evaluated by the
// expression interpreter against the full response context.
type FieldValidationRules struct {
	MinLength        *int     `json:"min_length,omitempty"`
	MaxLength        *int     `json:"max_length,omitempty"`
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`
	PatternMessage   string   `json:"pattern_message,omitempty"`
	DateBefore       string   `json:"date_before,omitempty"` // YYYY-MM-DD or "today"
	DateAfter        string   `json:"date_after,omitempty"`
	MinAge           *int     `json:"min_age,omitempty"`
	MaxAge           *int     `json:"max_age,omitempty"`
	CustomExpression string   `json:"custom_expression,omitempty"`
	CustomMessage    string   `json:"custom_message,omitempty"`
}

// FormField is a single configured input on a form.
//
// Exactly one of MappedField or CustomDataKey is set: MappedField is a
// dotted (optionally indexed) path into the canonical enrollment record,
// CustomDataKey a dotted path into the free-form custom data bag.
// Display-only fields carry neither.
type FormField struct {
	ID                string                `json:"id"`
	Type              FieldType             `json:"type"`
	Label             string                `json:"label"`
	Placeholder       string                `json:"placeholder,omitempty"`
	HelpText          string                `json:"help_text,omitempty"`
	Order             int                   `json:"order"`
	Width             string                `json:"width,omitempty"` // full, half, third
	Required          bool                  `json:"required"`
	RequiredCondition *ConditionExpression  `json:"required_condition,omitempty"`
	ShowCondition     *ConditionExpression  `json:"show_condition,omitempty"`
	Options           []FieldOption         `json:"options,omitempty"`
	Validation        *FieldValidationRules `json:"validation,omitempty"`
	// CalculatedExpression drives calculated fields; evaluated with the
	// same restricted interpreter as validation expressions.
	CalculatedExpression string `json:"calculated_expression,omitempty"`
	DefaultValue         any    `json:"default_value,omitempty"`
	MappedField          string `json:"mapped_field,omitempty"`
	CustomDataKey        string `json:"custom_data_key,omitempty"`
}

// HasDestination reports whether the field writes anywhere on submit.
func (f *FormField) HasDestination() bool {
	return f.MappedField != "" || f.CustomDataKey != ""
}

// OptionLabel resolves a raw stored value to its configured display label.
// Unknown values fall back to the raw value.
func (f *FormField) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}
