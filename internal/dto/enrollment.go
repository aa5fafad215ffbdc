package dto

// ForceEnrollRequest lets an administrator enroll a student directly.
type ForceEnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// DeclineEnrollmentRequest carries the mandatory decline reason.
type DeclineEnrollmentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// UpdateGradeRequest sets or clears an enrollment grade. An empty grade clears it.
type UpdateGradeRequest struct {
	Grade string `json:"grade" validate:"max=2"`
}
