package models

import "time"

// StudentProfile holds identity linkage and the derived academic summary.
// GPA and CompletedCredits are written only by GPA recomputation.
type StudentProfile struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	StudentNumber     string    `db:"student_number" json:"student_number"`
	FullName          string    `db:"full_name" json:"full_name"`
	GPA               float64   `db:"gpa" json:"gpa"`
	CompletedCredits  int       `db:"completed_credits" json:"completed_credits"`
	RegisteredCredits int       `db:"registered_credits" json:"registered_credits"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicSummary is the persisted outcome of a GPA recomputation.
type AcademicSummary struct {
	GPA               float64 `json:"gpa"`
	CompletedCredits  int     `json:"completed_credits"`
	RegisteredCredits int     `json:"registered_credits"`
}
