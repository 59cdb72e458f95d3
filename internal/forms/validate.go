package forms

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

// ValidationResult is the fully computed outcome of a validation pass. The
// engine never short-circuits, so a caller can surface every problem at
// once instead of drip-feeding them to the family filling the form in.
type ValidationResult struct {
	Valid            bool                `json:"valid"`
	FieldErrors      map[string][]string `json:"field_errors,omitempty"`
	CrossFieldErrors []string            `json:"cross_field_errors,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
}

func (r *ValidationResult) addFieldError(fieldID, message string) {
	if r.FieldErrors == nil {
		r.FieldErrors = map[string][]string{}
	}
	r.FieldErrors[fieldID] = append(r.FieldErrors[fieldID], message)
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// Validate runs the per-field and cross-field passes over the full
// response set. In draft mode (final=false) required fields are never an
// error, so autosave can validate what is present without nagging about
// what is not yet filled in.
func Validate(config *domain.FormConfig, responses map[string]any, final bool) *ValidationResult {
	result := &ValidationResult{}
	now := time.Now()

	for si := range config.Sections {
		section := &config.Sections[si]
		if !EvaluateCondition(section.ShowCondition, responses) {
			continue
		}
		if section.Repeatable {
			validateRepeatableSection(section, responses, final, now, result)
			continue
		}
		for fi := range section.Fields {
			field := &section.Fields[fi]
			validateField(field, field.ID, responses[field.ID], responses, final, now, result)
		}
	}

	for _, rule := range config.CrossFieldRules {
		if EvaluateBool(rule.Expression, responses) {
			continue
		}
		message := rule.ErrorMessage
		if message == "" {
			message = "form responses are inconsistent"
		}
		if rule.Severity == domain.SeverityWarning {
			result.Warnings = append(result.Warnings, message)
			continue
		}
		result.CrossFieldErrors = append(result.CrossFieldErrors, message)
		for _, fieldID := range rule.AffectedFields {
			result.addFieldError(fieldID, message)
		}
	}

	result.Valid = len(result.FieldErrors) == 0 && len(result.CrossFieldErrors) == 0
	return result
}

func validateRepeatableSection(section *domain.FormSection, responses map[string]any, final bool, now time.Time, result *ValidationResult) {
	members := make(map[string]bool, len(section.Fields))
	for fi := range section.Fields {
		members[section.Fields[fi].ID] = true
	}

	instances := map[int]bool{}
	for id := range responses {
		base, index, ok := SplitRepeatResponseID(id)
		if !ok || !members[base] {
			continue
		}
		instances[index] = true
	}

	// Every declared member of every present instance is checked, not just
	// the responses that were saved: a required field never answered for an
	// instance still validates as empty.
	for index := range instances {
		for fi := range section.Fields {
			field := &section.Fields[fi]
			id := encodeRepeatResponseID(field.ID, index)
			validateField(field, id, responses[id], responses, final, now, result)
		}
	}

	if final && section.MinInstances > 0 && len(instances) < section.MinInstances {
		result.CrossFieldErrors = append(result.CrossFieldErrors,
			fmt.Sprintf("%s requires at least %d entries", section.Title, section.MinInstances))
	}
	if section.MaxInstances > 0 && len(instances) > section.MaxInstances {
		result.CrossFieldErrors = append(result.CrossFieldErrors,
			fmt.Sprintf("%s allows at most %d entries", section.Title, section.MaxInstances))
	}
}

func validateField(field *domain.FormField, responseID string, value any, context map[string]any, final bool, now time.Time, result *ValidationResult) {
	if field.Type.DisplayOnly() || field.Type == domain.FieldTypeCalculated {
		return
	}
	// hidden fields are never validated or required
	if !EvaluateCondition(field.ShowCondition, context) {
		return
	}

	required := field.Required
	if !required && field.RequiredCondition != nil {
		required = EvaluateCondition(field.RequiredCondition, context)
	}

	if ValueEmpty(value) {
		if required && final {
			result.addFieldError(responseID, fmt.Sprintf("%s is required", field.Label))
		}
		// empty optional fields skip every further rule
		return
	}

	rules := field.Validation
	if rules == nil {
		rules = &domain.FieldValidationRules{}
	}

	for _, message := range builtinRuleErrors(field, rules, value, now) {
		result.addFieldError(responseID, message)
	}

	if rules.CustomExpression != "" && !EvaluateBool(rules.CustomExpression, context) {
		message := rules.CustomMessage
		if message == "" {
			message = fmt.Sprintf("%s is invalid", field.Label)
		}
		result.addFieldError(responseID, message)
	}
}

// builtinRuleErrors applies every configured built-in rule and returns
// every failure, never just the first.
func builtinRuleErrors(field *domain.FormField, rules *domain.FieldValidationRules, value any, now time.Time) []string {
	var errs []string
	label := field.Label
	text := asString(value)

	if rules.MinLength != nil && len([]rune(text)) < *rules.MinLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters", label, *rules.MinLength))
	}
	if rules.MaxLength != nil && len([]rune(text)) > *rules.MaxLength {
		errs = append(errs, fmt.Sprintf("%s must be at most %d characters", label, *rules.MaxLength))
	}

	if rules.Min != nil || rules.Max != nil {
		if n, ok := asNumber(value); ok {
			if rules.Min != nil && n < *rules.Min {
				errs = append(errs, fmt.Sprintf("%s must be at least %v", label, *rules.Min))
			}
			if rules.Max != nil && n > *rules.Max {
				errs = append(errs, fmt.Sprintf("%s must be at most %v", label, *rules.Max))
			}
		} else {
			errs = append(errs, fmt.Sprintf("%s must be a number", label))
		}
	}

	if rules.Pattern != "" {
		if re, err := regexp.Compile(rules.Pattern); err == nil && !re.MatchString(text) {
			message := rules.PatternMessage
			if message == "" {
				message = fmt.Sprintf("%s has an invalid format", label)
			}
			errs = append(errs, message)
		}
	}

	if field.Type == domain.FieldTypeEmail && !emailPattern.MatchString(strings.TrimSpace(text)) {
		errs = append(errs, fmt.Sprintf("%s must be a valid email address", label))
	}
	if field.Type == domain.FieldTypePhone && !phonePattern.MatchString(strings.TrimSpace(text)) {
		errs = append(errs, fmt.Sprintf("%s must be a valid phone number", label))
	}

	if needsDate(field.Type, rules) {
		date, ok := parseDate(text)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s must be a valid date", label))
			return errs
		}
		if rules.DateBefore != "" {
			if anchor, ok := parseAnchor(rules.DateBefore, now); ok && !date.Before(anchor) {
				errs = append(errs, fmt.Sprintf("%s must be before %s", label, rules.DateBefore))
			}
		}
		if rules.DateAfter != "" {
			if anchor, ok := parseAnchor(rules.DateAfter, now); ok && !date.After(anchor) {
				errs = append(errs, fmt.Sprintf("%s must be after %s", label, rules.DateAfter))
			}
		}
		if rules.MinAge != nil && ageInYears(date, now) < *rules.MinAge {
			errs = append(errs, fmt.Sprintf("%s: minimum age is %d", label, *rules.MinAge))
		}
		if rules.MaxAge != nil && ageInYears(date, now) > *rules.MaxAge {
			errs = append(errs, fmt.Sprintf("%s: maximum age is %d", label, *rules.MaxAge))
		}
	}

	return errs
}

func needsDate(t domain.FieldType, rules *domain.FieldValidationRules) bool {
	switch t {
	case domain.FieldTypeDate, domain.FieldTypeDateTime, domain.FieldTypeDateOfBirth:
		return true
	}
	return rules.DateBefore != "" || rules.DateAfter != "" || rules.MinAge != nil || rules.MaxAge != nil
}

func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if d, err := time.Parse(layout, text); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseAnchor resolves "today" to midnight of the current calendar day in
// now's location; Truncate would cut on absolute UTC time and can land on
// the wrong day.
func parseAnchor(anchor string, now time.Time) (time.Time, bool) {
	if strings.EqualFold(strings.TrimSpace(anchor), "today") {
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	}
	return parseDate(anchor)
}

// ageInYears computes age the way people do: whole calendar years, counting
// a year only once the month and day have passed. Never millisecond math.
func ageInYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
