package models

import (
	"fmt"
	"strings"
)

// GradeSymbol is a closed set of transcript grade symbols.
type GradeSymbol string

// Letter grades on the 4.0 scale.
const (
	GradeA      GradeSymbol = "A"
	GradeAMinus GradeSymbol = "A-"
	GradeBPlus  GradeSymbol = "B+"
	GradeB      GradeSymbol = "B"
	GradeBMinus GradeSymbol = "B-"
	GradeCPlus  GradeSymbol = "C+"
	GradeC      GradeSymbol = "C"
	GradeCMinus GradeSymbol = "C-"
	GradeDPlus  GradeSymbol = "D+"
	GradeD      GradeSymbol = "D"
	GradeF      GradeSymbol = "F"
)

// Non-letter markers. They never count toward GPA.
const (
	GradeWithdrawn  GradeSymbol = "W"
	GradeIncomplete GradeSymbol = "I"
	GradeTransfer   GradeSymbol = "TR"
)

// PassingThreshold is the minimum grade points for a passing letter grade (D).
const PassingThreshold = 1.0

var gradePoints = map[GradeSymbol]float64{
	GradeA:      4.0,
	GradeAMinus: 3.7,
	GradeBPlus:  3.3,
	GradeB:      3.0,
	GradeBMinus: 2.7,
	GradeCPlus:  2.3,
	GradeC:      2.0,
	GradeCMinus: 1.7,
	GradeDPlus:  1.3,
	GradeD:      1.0,
	GradeF:      0.0,
}

// ParseGrade normalises raw input into a known symbol.
func ParseGrade(raw string) (GradeSymbol, error) {
	g := GradeSymbol(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := gradePoints[g]; ok {
		return g, nil
	}
	switch g {
	case GradeWithdrawn, GradeIncomplete, GradeTransfer:
		return g, nil
	}
	return "", fmt.Errorf("unrecognised grade symbol %q", raw)
}

// Points returns the 4.0-scale grade points; markers yield 0.
func (g GradeSymbol) Points() float64 {
	return gradePoints[g]
}

// IsLetter reports whether g is one of the eleven letter grades.
func (g GradeSymbol) IsLetter() bool {
	_, ok := gradePoints[g]
	return ok
}

// CountsTowardGPA excludes withdrawal, incomplete and transfer markers.
func (g GradeSymbol) CountsTowardGPA() bool {
	return g.IsLetter()
}

// IsTransfer reports whether g marks transfer credit.
func (g GradeSymbol) IsTransfer() bool {
	return g == GradeTransfer
}

// Passing reports whether g is a letter grade of D or better.
func (g GradeSymbol) Passing() bool {
	return g.IsLetter() && g.Points() >= PassingThreshold
}

// EarnsCredit reports whether an attempt with g contributes earned credit.
func (g GradeSymbol) EarnsCredit() bool {
	return g.Passing() || g.IsTransfer()
}

// Recordable reports whether a completed enrollment with g belongs on the transcript.
func (g GradeSymbol) Recordable() bool {
	return g.IsLetter() || g.IsTransfer()
}
