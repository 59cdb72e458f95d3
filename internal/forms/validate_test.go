package forms

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func validationConfig() *domain.FormConfig {
	return &domain.FormConfig{
		Sections: []domain.FormSection{
			{
				ID: "student", Title: "Student Details",
				Fields: []domain.FormField{
					{
						ID: "firstName", Type: domain.FieldTypeText, Label: "First Name",
						Required:   true,
						Validation: &domain.FieldValidationRules{MinLength: intPtr(2), MaxLength: intPtr(40)},
					},
					{
						ID: "email", Type: domain.FieldTypeEmail, Label: "Contact Email",
						Required: true,
					},
					{
						ID: "dob", Type: domain.FieldTypeDateOfBirth, Label: "Date of Birth",
						Validation: &domain.FieldValidationRules{MinAge: intPtr(4), MaxAge: intPtr(19)},
					},
					{
						ID: "siblingCount", Type: domain.FieldTypeNumber, Label: "Siblings",
						Validation: &domain.FieldValidationRules{Min: floatPtr(0), Max: floatPtr(12)},
					},
					{
						ID: "siblingSchool", Type: domain.FieldTypeText, Label: "Sibling's School",
						ShowCondition: domain.Simple("siblingCount", domain.OpGreaterThan, 0),
						Required:      true,
					},
					{
						ID: "visaNumber", Type: domain.FieldTypeText, Label: "Visa Number",
						RequiredCondition: domain.Simple("enrollmentType", domain.OpEquals, "International"),
					},
				},
			},
		},
		CrossFieldRules: []domain.CrossFieldValidationRule{
			{
				ID:             "start-after-dob",
				Expression:     "startYear >= 2020",
				ErrorMessage:   "Start year must be 2020 or later",
				AffectedFields: []string{"startYear"},
				Severity:       domain.SeverityError,
			},
		},
	}
}

func TestValidateFinalRequiresEmptyFields(t *testing.T) {
	config := validationConfig()
	result := Validate(config, map[string]any{"startYear": float64(2024)}, true)

	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	wantRequired := []string{"firstName", "email"}
	for _, id := range wantRequired {
		errs := result.FieldErrors[id]
		if len(errs) != 1 || !strings.HasSuffix(errs[0], "is required") {
			t.Fatalf("field %s errors = %v, want single required error", id, errs)
		}
	}
	// hidden conditional field must not be required
	if _, found := result.FieldErrors["siblingSchool"]; found {
		t.Fatalf("hidden field siblingSchool must not be validated")
	}
	// conditionally-required field with a false condition stays optional
	if _, found := result.FieldErrors["visaNumber"]; found {
		t.Fatalf("visaNumber should not be required without its condition")
	}
}

func TestValidateDraftNeverRequires(t *testing.T) {
	config := validationConfig()
	result := Validate(config, map[string]any{"startYear": float64(2024)}, false)
	if len(result.FieldErrors) != 0 {
		t.Fatalf("draft mode raised field errors: %v", result.FieldErrors)
	}
	if !result.Valid {
		t.Fatalf("draft validation of empty responses should pass")
	}
}

func TestValidateRequiredConditionTriggers(t *testing.T) {
	config := validationConfig()
	responses := map[string]any{
		"firstName":      "Ava",
		"email":          "ava@example.com",
		"enrollmentType": "International",
		"startYear":      float64(2024),
	}
	result := Validate(config, responses, true)
	errs := result.FieldErrors["visaNumber"]
	if len(errs) != 1 || errs[0] != "Visa Number is required" {
		t.Fatalf("visaNumber errors = %v", errs)
	}
}

// Every failing rule for a field accumulates; nothing short-circuits.
func TestValidateAccumulatesAllErrors(t *testing.T) {
	config := validationConfig()
	responses := map[string]any{
		"firstName":    "A",
		"email":        "not-an-email",
		"siblingCount": float64(20),
		"startYear":    float64(2019),
	}
	result := Validate(config, responses, true)

	if len(result.FieldErrors["firstName"]) != 1 {
		t.Fatalf("firstName errors = %v", result.FieldErrors["firstName"])
	}
	if len(result.FieldErrors["email"]) != 1 {
		t.Fatalf("email errors = %v", result.FieldErrors["email"])
	}
	if len(result.FieldErrors["siblingCount"]) != 1 {
		t.Fatalf("siblingCount errors = %v", result.FieldErrors["siblingCount"])
	}
	if len(result.CrossFieldErrors) != 1 {
		t.Fatalf("cross-field errors = %v", result.CrossFieldErrors)
	}
	// cross-field failure lands on the affected field too
	if errs := result.FieldErrors["startYear"]; len(errs) != 1 || errs[0] != "Start year must be 2020 or later" {
		t.Fatalf("startYear errors = %v", errs)
	}
}

func TestValidateAgeCalendarArithmetic(t *testing.T) {
	now := time.Now()
	config := validationConfig()

	// turns 4 tomorrow: still 3 years old today, so min age 4 fails
	almostFour := now.AddDate(-4, 0, 1).Format("2006-01-02")
	result := Validate(config, map[string]any{
		"firstName": "Ava", "email": "a@b.co", "dob": almostFour, "startYear": float64(2024),
	}, true)
	if errs := result.FieldErrors["dob"]; len(errs) != 1 {
		t.Fatalf("dob just under min age should fail, got %v", errs)
	}

	// turned 4 today: passes
	exactlyFour := now.AddDate(-4, 0, 0).Format("2006-01-02")
	result = Validate(config, map[string]any{
		"firstName": "Ava", "email": "a@b.co", "dob": exactlyFour, "startYear": float64(2024),
	}, true)
	if errs := result.FieldErrors["dob"]; len(errs) != 0 {
		t.Fatalf("dob exactly at min age should pass, got %v", errs)
	}
}

func TestValidateCustomExpression(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{{
			ID: "s", Title: "S",
			Fields: []domain.FormField{{
				ID: "discount", Type: domain.FieldTypeNumber, Label: "Discount",
				Validation: &domain.FieldValidationRules{
					CustomExpression: "discount <= tuition",
					CustomMessage:    "Discount cannot exceed tuition",
				},
			}},
		}},
	}

	result := Validate(config, map[string]any{"discount": float64(500), "tuition": float64(300)}, false)
	if errs := result.FieldErrors["discount"]; len(errs) != 1 || errs[0] != "Discount cannot exceed tuition" {
		t.Fatalf("discount errors = %v", errs)
	}

	result = Validate(config, map[string]any{"discount": float64(100), "tuition": float64(300)}, false)
	if len(result.FieldErrors) != 0 {
		t.Fatalf("unexpected errors: %v", result.FieldErrors)
	}
}

func TestValidateRepeatableInstances(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{guardianSection()},
	}
	config.Sections[0].Fields[1].Required = true // guardian_email

	responses := map[string]any{
		"guardian_0_firstName": "Alice",
		"guardian_0_email":     "alice@example.com",
		"guardian_1_firstName": "Bob",
		"guardian_1_email":     "not-an-email",
	}
	result := Validate(config, responses, true)
	if errs := result.FieldErrors["guardian_1_email"]; len(errs) != 1 {
		t.Fatalf("guardian_1_email errors = %v", errs)
	}
	if _, found := result.FieldErrors["guardian_0_email"]; found {
		t.Fatalf("valid instance flagged: %v", result.FieldErrors)
	}
}

// A required member that was never saved for an existing instance is still
// empty at final submit; only saving it would make the instance complete.
func TestValidateRepeatableRequiresUnansweredMembers(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{guardianSection()},
	}
	config.Sections[0].Fields[1].Required = true // guardian_email

	responses := map[string]any{
		"guardian_0_firstName": "Alice",
	}
	result := Validate(config, responses, true)
	if result.Valid {
		t.Fatalf("final validation passed with required guardian email missing")
	}
	if errs := result.FieldErrors["guardian_0_email"]; len(errs) != 1 || errs[0] != "Email is required" {
		t.Fatalf("guardian_0_email errors = %v", errs)
	}

	// draft mode stays quiet about the gap
	result = Validate(config, responses, false)
	if _, found := result.FieldErrors["guardian_0_email"]; found {
		t.Fatalf("draft mode required an unanswered member: %v", result.FieldErrors)
	}

	// answering it clears the error
	responses["guardian_0_email"] = "alice@example.com"
	result = Validate(config, responses, true)
	if _, found := result.FieldErrors["guardian_0_email"]; found {
		t.Fatalf("answered member still flagged: %v", result.FieldErrors)
	}
}

func TestValidateRepeatableMinInstances(t *testing.T) {
	config := &domain.FormConfig{
		Sections: []domain.FormSection{guardianSection()},
	}
	result := Validate(config, map[string]any{}, true)
	want := fmt.Sprintf("%s requires at least %d entries", "Guardians", 1)
	found := false
	for _, e := range result.CrossFieldErrors {
		if e == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing min-instances error, got %v", result.CrossFieldErrors)
	}
}

func TestValidateHiddenSectionSkipped(t *testing.T) {
	config := validationConfig()
	config.Sections[0].ShowCondition = domain.Simple("never", domain.OpEquals, "yes")
	result := Validate(config, map[string]any{"startYear": float64(2024)}, true)
	if len(result.FieldErrors) != 0 {
		t.Fatalf("hidden section fields validated: %v", result.FieldErrors)
	}
}
