package models

import "fmt"

// Semester names an academic session within a year.
type Semester string

const (
	SemesterWinter Semester = "WINTER"
	SemesterSpring Semester = "SPRING"
	SemesterSummer Semester = "SUMMER"
	SemesterFall   Semester = "FALL"
)

// Rank orders semesters within a calendar year: Winter < Spring < Summer < Fall.
// Unknown values rank first.
func (s Semester) Rank() int {
	switch s {
	case SemesterWinter:
		return 1
	case SemesterSpring:
		return 2
	case SemesterSummer:
		return 3
	case SemesterFall:
		return 4
	}
	return 0
}

// Valid reports whether s is a known semester.
func (s Semester) Valid() bool {
	return s.Rank() > 0
}

// Term is the (semester, year) grouping key used for transcripts.
type Term struct {
	Semester Semester `json:"semester"`
	Year     int      `json:"year"`
}

// Before orders terms by year then semester rank.
func (t Term) Before(o Term) bool {
	if t.Year != o.Year {
		return t.Year < o.Year
	}
	return t.Semester.Rank() < o.Semester.Rank()
}

// String renders e.g. "FALL 2023".
func (t Term) String() string {
	return fmt.Sprintf("%s %d", t.Semester, t.Year)
}
