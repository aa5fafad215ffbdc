package service

import "github.com/noah-isme/course-registration-api/internal/models"

// Overlaps reports whether two weekly meetings collide. Intervals are half-open,
// so a meeting ending at 10:00 does not collide with one starting at 10:00.
func Overlaps(dayA models.Weekday, startA, endA models.ClockTime, dayB models.Weekday, startB, endB models.ClockTime) bool {
	return dayA == dayB && startA < endB && startB < endA
}

// SlotsOverlap applies Overlaps to two time slots.
func SlotsOverlap(a, b models.TimeSlot) bool {
	return Overlaps(a.DayOfWeek, a.StartTime, a.EndTime, b.DayOfWeek, b.StartTime, b.EndTime)
}
