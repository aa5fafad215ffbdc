package dto

// HypotheticalAttempt replaces an existing transcript row or adds a new attempt.
// When TranscriptID is set the grade replaces that row; otherwise CreditHours
// and Grade describe an additional attempt.
type HypotheticalAttempt struct {
	TranscriptID *int64 `json:"transcript_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	CreditHours  int    `json:"credit_hours" validate:"omitempty,min=0,max=30"`
	Grade        string `json:"grade" validate:"required"`
}

// SimulateGPARequest lists hypothetical attempts.
type SimulateGPARequest struct {
	Attempts []HypotheticalAttempt `json:"attempts" validate:"required,min=1,dive"`
}

// SimulateGPAResponse compares the current and simulated GPA.
type SimulateGPAResponse struct {
	CurrentGPA   float64 `json:"current_gpa"`
	SimulatedGPA float64 `json:"simulated_gpa"`
}

// RecalculateGPAResponse reports the persisted summary after recomputation.
type RecalculateGPAResponse struct {
	StudentID        string  `json:"student_id"`
	GPA              float64 `json:"gpa"`
	CompletedCredits int     `json:"completed_credits"`
}
