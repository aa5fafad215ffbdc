package models

import (
	"strings"
	"time"
)

// RetakePolicy decides which attempts of a repeated course count toward GPA.
type RetakePolicy string

const (
	RetakeAllAttempts       RetakePolicy = "ALL_ATTEMPTS"
	RetakeLatestAttemptOnly RetakePolicy = "LATEST_ATTEMPT_ONLY"
)

// DefaultRetakePolicy applies when no policy is configured.
const DefaultRetakePolicy = RetakeLatestAttemptOnly

// ParseRetakePolicy validates a configured policy value.
func ParseRetakePolicy(raw string) (RetakePolicy, bool) {
	switch p := RetakePolicy(strings.ToUpper(strings.TrimSpace(raw))); p {
	case RetakeAllAttempts, RetakeLatestAttemptOnly:
		return p, true
	}
	return "", false
}

// Transcript is a completed academic record derived from a graded enrollment.
type Transcript struct {
	ID          int64       `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"student_id"`
	CourseID    string      `db:"course_id" json:"course_id"`
	OfferingID  string      `db:"offering_id" json:"offering_id"`
	Grade       GradeSymbol `db:"grade" json:"grade"`
	GradePoints float64     `db:"grade_points" json:"grade_points"`
	CreditHours int         `db:"credit_hours" json:"credit_hours"`
	Semester    Semester    `db:"semester" json:"semester"`
	Year        int         `db:"year" json:"year"`
	CompletedAt time.Time   `db:"completed_at" json:"completed_at"`
}

// TranscriptDetail adds course labels for display.
type TranscriptDetail struct {
	Transcript
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
}

// Attempt is the aggregation engine's view of one course attempt.
type Attempt struct {
	TranscriptID int64
	CourseID     string
	CourseCode   string
	CourseName   string
	Grade        GradeSymbol
	CreditHours  int
	Term         Term
	CompletedAt  time.Time
	// Status is COMPLETED for transcript rows; rows synthesised from
	// enrollments carry the enrollment status.
	Status EnrollmentStatus
}

// AttemptFromTranscript converts a persisted transcript row.
func AttemptFromTranscript(t TranscriptDetail) Attempt {
	return Attempt{
		TranscriptID: t.ID,
		CourseID:     t.CourseID,
		CourseCode:   t.CourseCode,
		CourseName:   t.CourseName,
		Grade:        t.Grade,
		CreditHours:  t.CreditHours,
		Term:         Term{Semester: t.Semester, Year: t.Year},
		CompletedAt:  t.CompletedAt,
		Status:       EnrollmentStatusCompleted,
	}
}

// OnTranscript reports whether the attempt is backed by a transcript row.
func (a Attempt) OnTranscript() bool {
	return a.TranscriptID != 0
}

// AttemptFromEnrollment converts an enrollment that has no transcript row.
func AttemptFromEnrollment(e EnrollmentDetail) Attempt {
	a := Attempt{
		CourseID:    e.CourseID,
		CourseCode:  e.CourseCode,
		CourseName:  e.CourseName,
		CreditHours: e.CreditHours,
		Term:        Term{Semester: e.Semester, Year: e.Year},
		Status:      e.Status,
	}
	if e.Grade != nil {
		a.Grade = *e.Grade
	}
	if e.Status == EnrollmentStatusDropped {
		a.Grade = GradeWithdrawn
	}
	return a
}
