package forms

import (
	"strconv"
	"strings"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

// DisplayValue renders a stored raw value as the human-readable text cached
// on the response: option labels for selections, long-form dates, joined
// lists. Recomputed on every save so label edits show up on old drafts.
func DisplayValue(field *domain.FormField, value any) string {
	if ValueEmpty(value) {
		return ""
	}
	switch {
	case field.Type.Selection():
		switch v := value.(type) {
		case []any:
			labels := make([]string, 0, len(v))
			for _, item := range v {
				labels = append(labels, field.OptionLabel(asString(item)))
			}
			return strings.Join(labels, ", ")
		case []string:
			labels := make([]string, 0, len(v))
			for _, item := range v {
				labels = append(labels, field.OptionLabel(item))
			}
			return strings.Join(labels, ", ")
		default:
			return field.OptionLabel(asString(value))
		}
	case field.Type == domain.FieldTypeDate || field.Type == domain.FieldTypeDateOfBirth:
		if d, ok := parseDate(asString(value)); ok {
			return d.Format("2 January 2006")
		}
	case field.Type == domain.FieldTypeDateTime:
		if d, ok := parseDate(asString(value)); ok {
			return d.Format("2 January 2006 15:04")
		}
	case field.Type == domain.FieldTypeYesNo || field.Type == domain.FieldTypeCheckbox || field.Type == domain.FieldTypeConsent:
		if truthy(value) {
			return "Yes"
		}
		return "No"
	}
	return asString(value)
}

// Progress is the completion percentage shown to the applicant: sections
// whose every visible required field is answered, over visible sections.
// Sections hidden by their show condition count on neither side.
func Progress(config *domain.FormConfig, responses map[string]any) int {
	visible := 0
	complete := 0
	for si := range config.Sections {
		section := &config.Sections[si]
		if !EvaluateCondition(section.ShowCondition, responses) {
			continue
		}
		visible++
		if sectionComplete(section, responses) {
			complete++
		}
	}
	if visible == 0 {
		return 0
	}
	return complete * 100 / visible
}

func sectionComplete(section *domain.FormSection, responses map[string]any) bool {
	if section.Repeatable {
		return repeatableSectionComplete(section, responses)
	}
	for fi := range section.Fields {
		field := &section.Fields[fi]
		if !fieldAnswered(field, field.ID, responses) {
			return false
		}
	}
	return true
}

func repeatableSectionComplete(section *domain.FormSection, responses map[string]any) bool {
	members := make(map[string]*domain.FormField, len(section.Fields))
	for fi := range section.Fields {
		members[section.Fields[fi].ID] = &section.Fields[fi]
	}
	instances := map[int][]string{}
	for id := range responses {
		base, index, ok := SplitRepeatResponseID(id)
		if !ok {
			continue
		}
		if _, member := members[base]; member {
			instances[index] = append(instances[index], id)
		}
	}
	if len(instances) < section.MinInstances {
		return false
	}
	for index := range instances {
		for base, field := range members {
			id := encodeRepeatResponseID(base, index)
			if !fieldAnswered(field, id, responses) {
				return false
			}
		}
	}
	return true
}

// encodeRepeatResponseID inserts the instance index before the final
// underscore-separated segment of the field id, the inverse of
// SplitRepeatResponseID.
func encodeRepeatResponseID(fieldID string, index int) string {
	cut := strings.LastIndex(fieldID, "_")
	if cut < 0 {
		return fieldID
	}
	return fieldID[:cut] + "_" + strconv.Itoa(index) + "_" + fieldID[cut+1:]
}

func fieldAnswered(field *domain.FormField, responseID string, responses map[string]any) bool {
	if field.Type.DisplayOnly() || field.Type == domain.FieldTypeCalculated {
		return true
	}
	if !EvaluateCondition(field.ShowCondition, responses) {
		return true
	}
	required := field.Required
	if !required && field.RequiredCondition != nil {
		required = EvaluateCondition(field.RequiredCondition, responses)
	}
	if !required {
		return true
	}
	return !ValueEmpty(responses[responseID])
}
