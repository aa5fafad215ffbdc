package service

import (
	"math"
	"sort"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// newerAttempt orders attempts of the same course: year, then semester rank,
// then completion time, then transcript row id.
func newerAttempt(a, b models.Attempt) bool {
	if a.Term.Year != b.Term.Year {
		return a.Term.Year > b.Term.Year
	}
	if ra, rb := a.Term.Semester.Rank(), b.Term.Semester.Rank(); ra != rb {
		return ra > rb
	}
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.After(b.CompletedAt)
	}
	return a.TranscriptID > b.TranscriptID
}

// FilterByPolicy returns the transcript attempts that participate in GPA under policy.
// Attempts without a transcript row never participate.
func FilterByPolicy(attempts []models.Attempt, policy models.RetakePolicy) []models.Attempt {
	var recorded []models.Attempt
	for _, a := range attempts {
		if a.OnTranscript() {
			recorded = append(recorded, a)
		}
	}
	if policy == models.RetakeAllAttempts {
		return recorded
	}

	latest := make(map[string]models.Attempt, len(recorded))
	order := make([]string, 0, len(recorded))
	for _, a := range recorded {
		current, ok := latest[a.CourseID]
		if !ok {
			order = append(order, a.CourseID)
			latest[a.CourseID] = a
			continue
		}
		if newerAttempt(a, current) {
			latest[a.CourseID] = a
		}
	}
	result := make([]models.Attempt, 0, len(order))
	for _, courseID := range order {
		result = append(result, latest[courseID])
	}
	return result
}

// ComputeSummary aggregates GPA and credits over the attempts.
func ComputeSummary(attempts []models.Attempt, policy models.RetakePolicy) dto.CreditTotals {
	var totals dto.CreditTotals
	for _, a := range attempts {
		totals.AttemptedCredits += a.CreditHours
	}
	for _, a := range FilterByPolicy(attempts, policy) {
		if !a.Grade.CountsTowardGPA() {
			continue
		}
		totals.GPACredits += a.CreditHours
		totals.QualityPoints += a.Grade.Points() * float64(a.CreditHours)
	}
	totals.EarnedCredits, totals.TransferCredits = creditsOncePerCourse(attempts)
	totals.GPA = gpa(totals.QualityPoints, totals.GPACredits)
	totals.QualityPoints = round2(totals.QualityPoints)
	return totals
}

// creditsOncePerCourse counts a course's credit hours once when any transcript
// attempt earned credit, using the latest such attempt.
func creditsOncePerCourse(attempts []models.Attempt) (earned, transfer int) {
	best := make(map[string]models.Attempt)
	for _, a := range attempts {
		if !a.OnTranscript() || !a.Grade.EarnsCredit() {
			continue
		}
		if current, ok := best[a.CourseID]; !ok || newerAttempt(a, current) {
			best[a.CourseID] = a
		}
	}
	for _, a := range best {
		earned += a.CreditHours
		if a.Grade.IsTransfer() {
			transfer += a.CreditHours
		}
	}
	return earned, transfer
}

// BuildTermView groups transcript and enrollment attempts by term in
// chronological order and reports per-term and overall totals.
func BuildTermView(attempts []models.Attempt, policy models.RetakePolicy) ([]dto.TranscriptTerm, dto.CreditTotals) {
	counted := make(map[int64]bool)
	for _, a := range FilterByPolicy(attempts, policy) {
		if a.Grade.CountsTowardGPA() {
			counted[a.TranscriptID] = true
		}
	}

	byTerm := make(map[models.Term][]models.Attempt)
	var terms []models.Term
	for _, a := range attempts {
		if _, ok := byTerm[a.Term]; !ok {
			terms = append(terms, a.Term)
		}
		byTerm[a.Term] = append(byTerm[a.Term], a)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Before(terms[j]) })

	view := make([]dto.TranscriptTerm, 0, len(terms))
	for _, term := range terms {
		rows := byTerm[term]
		entry := dto.TranscriptTerm{Semester: term.Semester, Year: term.Year, Courses: make([]dto.TranscriptCourse, 0, len(rows))}
		for _, a := range rows {
			entry.Totals.AttemptedCredits += a.CreditHours
			inGPA := a.OnTranscript() && counted[a.TranscriptID]
			if inGPA {
				entry.Totals.GPACredits += a.CreditHours
				entry.Totals.QualityPoints += a.Grade.Points() * float64(a.CreditHours)
			}
			entry.Courses = append(entry.Courses, transcriptCourse(a, inGPA))
		}
		entry.Totals.EarnedCredits, entry.Totals.TransferCredits = creditsOncePerCourse(rows)
		entry.Totals.GPA = gpa(entry.Totals.QualityPoints, entry.Totals.GPACredits)
		entry.Totals.QualityPoints = round2(entry.Totals.QualityPoints)
		view = append(view, entry)
	}

	return view, ComputeSummary(attempts, policy)
}

func transcriptCourse(a models.Attempt, inGPA bool) dto.TranscriptCourse {
	course := dto.TranscriptCourse{
		CourseID:    a.CourseID,
		CourseCode:  a.CourseCode,
		CourseName:  a.CourseName,
		Grade:       string(a.Grade),
		CreditHours: a.CreditHours,
		Status:      a.Status,
		CountsInGPA: inGPA,
	}
	if a.OnTranscript() {
		id := a.TranscriptID
		completed := a.CompletedAt
		course.TranscriptID = &id
		course.CompletedAt = &completed
		if a.Grade.IsLetter() {
			points := a.Grade.Points()
			course.GradePoints = &points
		}
	}
	return course
}

// Simulate recomputes GPA over a working copy where hypothetical attempts
// replace or extend the recorded ones. Nothing is persisted.
func Simulate(recorded, hypothetical []models.Attempt, policy models.RetakePolicy) (current, simulated float64) {
	current = ComputeSummary(recorded, policy).GPA

	working := make([]models.Attempt, 0, len(recorded)+len(hypothetical))
	replaced := make(map[int64]models.Attempt)
	var additions []models.Attempt
	for _, h := range hypothetical {
		if h.TranscriptID != 0 {
			replaced[h.TranscriptID] = h
			continue
		}
		additions = append(additions, h)
	}
	for _, a := range recorded {
		if h, ok := replaced[a.TranscriptID]; ok {
			a.Grade = h.Grade
		}
		working = append(working, a)
	}
	working = append(working, placeAfter(recorded, additions)...)
	return current, ComputeSummary(working, policy).GPA
}

// placeAfter gives hypothetical additions a term and row id later than every
// recorded attempt so they win latest-attempt selection.
func placeAfter(recorded, additions []models.Attempt) []models.Attempt {
	var maxYear int
	var maxID int64
	for _, a := range recorded {
		if a.Term.Year > maxYear {
			maxYear = a.Term.Year
		}
		if a.TranscriptID > maxID {
			maxID = a.TranscriptID
		}
	}
	placed := make([]models.Attempt, len(additions))
	for i, a := range additions {
		a.Term = models.Term{Semester: models.SemesterFall, Year: maxYear + 1}
		a.TranscriptID = maxID + int64(i) + 1
		a.Status = models.EnrollmentStatusCompleted
		placed[i] = a
	}
	return placed
}

func gpa(qualityPoints float64, credits int) float64 {
	if credits == 0 {
		return 0
	}
	return round2(qualityPoints / float64(credits))
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
