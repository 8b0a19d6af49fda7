package catalog

import (
	"errors"

	"github.com/uptrace/bun"
)

var (
	ErrInvalidLevel   = errors.New("level must be one of 100, 200, 300, 400")
	ErrCourseNotFound = errors.New("course not found")
)

type Classification string

const (
	Compulsory Classification = "Compulsory"
	Elective   Classification = "Elective"
)

// Levels lists the academic years a student can register for.
var Levels = []int{100, 200, 300, 400}

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID          int            `bun:"id,pk" json:"id"`
	Code        string         `bun:"code,notnull,unique" json:"code"`
	Title       string         `bun:"title,notnull" json:"title"`
	CreditHours int            `bun:"credit_hours,notnull" json:"creditHours"`
	Type        Classification `bun:"type,notnull" json:"type"`
	Level       int            `bun:"level,notnull" json:"level"`
}

func ValidLevel(level int) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Index maps course ids to courses.
func Index(courses []Course) map[int]Course {
	out := make(map[int]Course, len(courses))
	for _, c := range courses {
		out[c.ID] = c
	}
	return out
}

// SampleCourses returns a fresh copy of the built-in 300 level catalog.
func SampleCourses() []Course {
	return []Course{
		{ID: 1, Code: "CSC301", Title: "Database Management Systems", CreditHours: 3, Type: Compulsory, Level: 300},
		{ID: 2, Code: "CSC302", Title: "Software Engineering", CreditHours: 3, Type: Compulsory, Level: 300},
		{ID: 3, Code: "CSC303", Title: "Computer Networks", CreditHours: 3, Type: Compulsory, Level: 300},
		{ID: 4, Code: "CSC304", Title: "Operating Systems", CreditHours: 3, Type: Compulsory, Level: 300},
		{ID: 5, Code: "CSC305", Title: "Web Programming", CreditHours: 2, Type: Elective, Level: 300},
		{ID: 6, Code: "CSC306", Title: "Mobile App Development", CreditHours: 2, Type: Elective, Level: 300},
		{ID: 7, Code: "MAT301", Title: "Numerical Analysis", CreditHours: 3, Type: Compulsory, Level: 300},
		{ID: 8, Code: "STA301", Title: "Statistical Computing", CreditHours: 2, Type: Elective, Level: 300},
	}
}
