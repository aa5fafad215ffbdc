package service

import "github.com/noah-isme/course-registration-api/internal/models"

// CanDrop allows the enrollment's own student or an administrator.
func CanDrop(actor models.Actor, enrollment *models.Enrollment) bool {
	if actor.IsAdmin() {
		return true
	}
	return enrollment != nil && actor.StudentID != "" && actor.StudentID == enrollment.StudentID
}

// CanApprove allows administrators to approve, decline, force-enroll and delete.
func CanApprove(actor models.Actor) bool {
	return actor.IsAdmin()
}

// CanGrade allows administrators and the instructor assigned to the offering.
func CanGrade(actor models.Actor, offering *models.OfferingDetail) bool {
	if actor.IsAdmin() {
		return true
	}
	if offering == nil || offering.InstructorID == nil || actor.InstructorID == "" {
		return false
	}
	return *offering.InstructorID == actor.InstructorID
}

// CanViewRecord allows a student to read their own record and administrators any record.
func CanViewRecord(actor models.Actor, studentID string) bool {
	return actor.IsAdmin() || (actor.StudentID != "" && actor.StudentID == studentID)
}
