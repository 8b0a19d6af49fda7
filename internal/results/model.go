package results

import (
	"errors"

	"github.com/uptrace/bun"
)

var (
	ErrInvalidQuery  = errors.New("matric number, session and semester are required")
	ErrUnknownGrade  = errors.New("unknown letter grade")
	ErrNoCreditHours = errors.New("no credit hours to average")
)

var (
	Sessions  = []string{"2023/2024", "2022/2023", "2021/2022"}
	Semesters = []string{"first", "second"}
)

type CourseResult struct {
	bun.BaseModel `bun:"table:course_results,alias:cr"`

	ID          int    `bun:"id,pk,autoincrement" json:"-"`
	Session     string `bun:"session,notnull" json:"-"`
	Semester    string `bun:"semester,notnull" json:"-"`
	Code        string `bun:"code,notnull" json:"code"`
	Title       string `bun:"title,notnull" json:"title"`
	CreditHours int    `bun:"credit_hours,notnull" json:"creditHours"`
	Score       int    `bun:"score,notnull" json:"score"`
	Grade       string `bun:"grade,notnull" json:"grade"`
}

type Query struct {
	MatricNumber string `json:"matricNumber" validate:"required"`
	Session      string `json:"session" validate:"required,oneof=2023/2024 2022/2023 2021/2022"`
	Semester     string `json:"semester" validate:"required,oneof=first second"`
}

// Report is one results lookup with its GPA. GPA reads "0.00" and GPADefined
// is false when the results carry no credit hours.
type Report struct {
	Query        Query          `json:"query"`
	Results      []CourseResult `json:"results"`
	CourseCount  int            `json:"courseCount"`
	TotalCredits int            `json:"totalCredits"`
	GPA          string         `json:"gpa"`
	GPADefined   bool           `json:"gpaDefined"`
}

// SampleResults returns a fresh copy of the built-in results set.
func SampleResults() []CourseResult {
	return []CourseResult{
		{Code: "CSC301", Title: "Database Management Systems", CreditHours: 3, Score: 85, Grade: "A"},
		{Code: "CSC302", Title: "Software Engineering", CreditHours: 3, Score: 78, Grade: "B+"},
		{Code: "CSC303", Title: "Computer Networks", CreditHours: 3, Score: 92, Grade: "A+"},
		{Code: "CSC304", Title: "Operating Systems", CreditHours: 3, Score: 74, Grade: "B"},
		{Code: "CSC305", Title: "Web Programming", CreditHours: 2, Score: 88, Grade: "A"},
		{Code: "MAT301", Title: "Numerical Analysis", CreditHours: 3, Score: 81, Grade: "A-"},
	}
}
