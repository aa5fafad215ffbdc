package dto

import (
	"time"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// TranscriptCourse is one line of a term on the transcript view.
type TranscriptCourse struct {
	TranscriptID *int64                  `json:"transcript_id,omitempty"`
	CourseID     string                  `json:"course_id"`
	CourseCode   string                  `json:"course_code"`
	CourseName   string                  `json:"course_name"`
	Grade        string                  `json:"grade"`
	GradePoints  *float64                `json:"grade_points,omitempty"`
	CreditHours  int                     `json:"credit_hours"`
	Status       models.EnrollmentStatus `json:"status"`
	CountsInGPA  bool                    `json:"counts_in_gpa"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
}

// CreditTotals carries the credit and quality point aggregates of a scope.
type CreditTotals struct {
	AttemptedCredits int     `json:"attempted_credits"`
	EarnedCredits    int     `json:"earned_credits"`
	GPACredits       int     `json:"gpa_credits"`
	TransferCredits  int     `json:"transfer_credits"`
	QualityPoints    float64 `json:"quality_points"`
	GPA              float64 `json:"gpa"`
}

// TranscriptTerm groups courses of one (semester, year).
type TranscriptTerm struct {
	Semester models.Semester    `json:"semester"`
	Year     int                `json:"year"`
	Courses  []TranscriptCourse `json:"courses"`
	Totals   CreditTotals       `json:"totals"`
}

// TranscriptView is the term-grouped transcript plus an overall summary.
type TranscriptView struct {
	StudentID    string              `json:"student_id"`
	StudentName  string              `json:"student_name,omitempty"`
	RetakePolicy models.RetakePolicy `json:"retake_policy"`
	Terms        []TranscriptTerm    `json:"terms"`
	Overall      CreditTotals        `json:"overall"`
	GeneratedAt  time.Time           `json:"generated_at"`
}
