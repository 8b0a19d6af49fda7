package results

import (
	"errors"
	"fmt"
	"math"
)

var gradePoints = map[string]float64{
	"A+": 4.0,
	"A":  4.0,
	"A-": 3.7,
	"B+": 3.3,
	"B":  3.0,
	"B-": 2.7,
	"C+": 2.3,
	"C":  2.0,
	"C-": 1.7,
	"D+": 1.3,
	"D":  1.0,
	"F":  0.0,
}

func GradePoints(grade string) (float64, error) {
	p, ok := gradePoints[grade]
	if !ok {
		return 0, fmt.Errorf("grade %q: %w", grade, ErrUnknownGrade)
	}
	return p, nil
}

// GPA is the credit-weighted mean of the grade points, rounded half away from
// zero to two decimals.
func GPA(results []CourseResult) (float64, error) {
	var points float64
	credits := 0
	for _, r := range results {
		p, err := GradePoints(r.Grade)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", r.Code, err)
		}
		points += p * float64(r.CreditHours)
		credits += r.CreditHours
	}

	if credits == 0 {
		return 0, ErrNoCreditHours
	}
	return math.Round(points/float64(credits)*100) / 100, nil
}

func FormatGPA(gpa float64) string {
	return fmt.Sprintf("%.2f", gpa)
}

// BuildReport totals results for q. Zero credit hours is reported as an
// undefined "0.00" GPA rather than an error.
func BuildReport(q Query, results []CourseResult) (*Report, error) {
	if results == nil {
		results = []CourseResult{}
	}

	report := &Report{
		Query:       q,
		Results:     results,
		CourseCount: len(results),
		GPA:         FormatGPA(0),
	}
	for _, r := range results {
		report.TotalCredits += r.CreditHours
	}

	gpa, err := GPA(results)
	switch {
	case err == nil:
		report.GPA = FormatGPA(gpa)
		report.GPADefined = true
	case errors.Is(err, ErrNoCreditHours):
	default:
		return nil, err
	}
	return report, nil
}
