package domain

// Canonical destination paths. Every tenant form, whatever its shape, folds
// into this fixed enrollment record structure; the publish completeness
// check guarantees the essentials are reachable.
const (
	PathStudentFirstName   = "student.firstName"
	PathStudentLastName    = "student.lastName"
	PathStudentDateOfBirth = "student.dateOfBirth"
	PathStudentGender      = "student.gender"

	PathGuardianFirstName    = "guardians[].firstName"
	PathGuardianLastName     = "guardians[].lastName"
	PathGuardianEmail        = "guardians[].email"
	PathGuardianPhone        = "guardians[].phone"
	PathGuardianRelationship = "guardians[].relationship"

	PathRequestedYearLevel = "enrollment.requestedYearLevel"
	PathRequestedStartDate = "enrollment.requestedStartDate"
)

// RequiredCanonicalPaths is the publish checklist: each path must be the
// mapped destination of at least one field before a form can go live.
var RequiredCanonicalPaths = []string{
	PathStudentFirstName,
	PathStudentLastName,
	PathStudentDateOfBirth,
	PathGuardianFirstName,
	PathGuardianLastName,
	PathGuardianEmail,
	PathRequestedYearLevel,
}

// CanonicalRecord is the partial enrollment record produced by mapping a
// submission. CustomData carries everything with no canonical home.
type CanonicalRecord struct {
	Record     map[string]any `json:"record"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}
