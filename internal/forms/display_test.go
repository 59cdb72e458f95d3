package forms

import (
	"testing"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

func TestDisplayValue(t *testing.T) {
	selectField := &domain.FormField{
		ID: "yearLevel", Type: domain.FieldTypeSelect, Label: "Year Level",
		Options: []domain.FieldOption{
			{Value: "7", Label: "Year 7"},
			{Value: "8", Label: "Year 8"},
		},
	}
	multiField := &domain.FormField{
		ID: "interests", Type: domain.FieldTypeMultiSelect, Label: "Interests",
		Options: []domain.FieldOption{
			{Value: "music", Label: "Music"},
			{Value: "sport", Label: "Sport"},
		},
	}
	dateField := &domain.FormField{ID: "dob", Type: domain.FieldTypeDateOfBirth, Label: "Date of Birth"}
	consentField := &domain.FormField{ID: "consent", Type: domain.FieldTypeConsent, Label: "Consent"}
	textField := &domain.FormField{ID: "name", Type: domain.FieldTypeText, Label: "Name"}

	cases := []struct {
		name  string
		field *domain.FormField
		value any
		want  string
	}{
		{"select_label", selectField, "7", "Year 7"},
		{"select_unknown_value_falls_back", selectField, "12", "12"},
		{"multi_select_joined", multiField, []any{"music", "sport"}, "Music, Sport"},
		{"date_localized", dateField, "2015-03-09", "9 March 2015"},
		{"consent_true", consentField, true, "Yes"},
		{"consent_false", consentField, false, "No"},
		{"plain_text", textField, "Ava", "Ava"},
		{"empty", textField, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayValue(tc.field, tc.value); got != tc.want {
				t.Fatalf("DisplayValue=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{
			{
				ID: "student", Title: "Student",
				Fields: []domain.FormField{
					{ID: "firstName", Type: domain.FieldTypeText, Label: "First Name", Required: true},
					{ID: "nickname", Type: domain.FieldTypeText, Label: "Nickname"},
				},
			},
			{
				ID: "medical", Title: "Medical",
				Fields: []domain.FormField{
					{ID: "allergies", Type: domain.FieldTypeTextarea, Label: "Allergies", Required: true},
				},
			},
			{
				ID: "visa", Title: "Visa",
				ShowCondition: domain.Simple("enrollmentType", domain.OpEquals, "International"),
				Fields: []domain.FormField{
					{ID: "visaNumber", Type: domain.FieldTypeText, Label: "Visa Number", Required: true},
				},
			},
		},
	}

	// hidden visa section counts on neither side: 1 of 2 complete
	p := Progress(config, map[string]any{"firstName": "Ava"})
	if p != 50 {
		t.Fatalf("progress=%d, want 50", p)
	}

	// optional unanswered field does not block completion
	p = Progress(config, map[string]any{"firstName": "Ava", "allergies": "none"})
	if p != 100 {
		t.Fatalf("progress=%d, want 100", p)
	}

	// showing the visa section adds a third, incomplete section
	p = Progress(config, map[string]any{
		"firstName": "Ava", "allergies": "none", "enrollmentType": "International",
	})
	if p != 66 {
		t.Fatalf("progress=%d, want 66", p)
	}
}

func TestProgressRepeatable(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{guardianSection()},
	}
	config.Sections[0].Fields[0].Required = true // guardian_firstName

	if p := Progress(config, map[string]any{}); p != 0 {
		t.Fatalf("no instances: progress=%d, want 0", p)
	}
	p := Progress(config, map[string]any{"guardian_0_firstName": "Alice"})
	if p != 100 {
		t.Fatalf("one complete instance: progress=%d, want 100", p)
	}
}
