package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusDeclined  EnrollmentStatus = "DECLINED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusPending:   {EnrollmentStatusEnrolled, EnrollmentStatusDeclined, EnrollmentStatusDropped},
	EnrollmentStatusEnrolled:  {EnrollmentStatusDropped, EnrollmentStatusCompleted},
	EnrollmentStatusDeclined:  {EnrollmentStatusPending},
	EnrollmentStatusDropped:   {EnrollmentStatusPending},
	EnrollmentStatusCompleted: {EnrollmentStatusCompleted},
}

// ParseEnrollmentStatus validates a raw status string.
func ParseEnrollmentStatus(raw string) (EnrollmentStatus, bool) {
	s := EnrollmentStatus(raw)
	_, ok := enrollmentTransitions[s]
	return s, ok
}

// IsActive reports whether the status blocks another section of the course.
func (s EnrollmentStatus) IsActive() bool {
	return s == EnrollmentStatusPending || s == EnrollmentStatusEnrolled
}

// HoldsSeat reports whether a row in this status counts against the offering's
// capacity. Completed rows keep the seat they took until the row is deleted.
func (s EnrollmentStatus) HoldsSeat() bool {
	return s.IsActive() || s == EnrollmentStatusCompleted
}

// IsReactivatable reports whether a later enrollment attempt may reuse the row.
func (s EnrollmentStatus) IsReactivatable() bool {
	return s == EnrollmentStatusDropped || s == EnrollmentStatusDeclined
}

// CanTransition reports whether from -> to is a legal edge of the enrollment lifecycle.
func CanTransition(from, to EnrollmentStatus) bool {
	for _, next := range enrollmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Enrollment captures a student's registration in one offering. At most one row
// exists per (student, offering).
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	OfferingID    string           `db:"offering_id" json:"offering_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt    time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Grade         *GradeSymbol     `db:"grade" json:"grade,omitempty"`
	DeclineReason *string          `db:"decline_reason" json:"decline_reason,omitempty"`
	ApprovedBy    *string          `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// ResetForReactivation returns a dropped/declined row to PENDING with cleared
// grade and approval fields.
func (e *Enrollment) ResetForReactivation(now time.Time) {
	e.Status = EnrollmentStatusPending
	e.Grade = nil
	e.DeclineReason = nil
	e.ApprovedBy = nil
	e.ApprovedAt = nil
	e.EnrolledAt = now
	e.UpdatedAt = now
}

// EnrollmentDetail enriches Enrollment with course and term context.
type EnrollmentDetail struct {
	Enrollment
	CourseID    string   `db:"course_id" json:"course_id"`
	CourseCode  string   `db:"course_code" json:"course_code"`
	CourseName  string   `db:"course_name" json:"course_name"`
	CreditHours int      `db:"credit_hours" json:"credit_hours"`
	SectionCode string   `db:"section_code" json:"section_code"`
	Semester    Semester `db:"semester" json:"semester"`
	Year        int      `db:"year" json:"year"`
	StudentName string   `db:"student_name" json:"student_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	OfferingID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
