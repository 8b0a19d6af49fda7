package catalog

import (
	"context"
	"fmt"
)

// Provider serves the read-only course catalog.
type Provider interface {
	Courses(ctx context.Context) ([]Course, error)
	CoursesByLevel(ctx context.Context, level int) ([]Course, error)
}

// StaticProvider serves a fixed in-memory catalog.
type StaticProvider struct {
	courses []Course
}

func NewStaticProvider(courses []Course) *StaticProvider {
	cp := make([]Course, len(courses))
	copy(cp, courses)
	return &StaticProvider{courses: cp}
}

func (p *StaticProvider) Courses(ctx context.Context) ([]Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Course, len(p.courses))
	copy(out, p.courses)
	return out, nil
}

func (p *StaticProvider) CoursesByLevel(ctx context.Context, level int) ([]Course, error) {
	if !ValidLevel(level) {
		return nil, fmt.Errorf("level %d: %w", level, ErrInvalidLevel)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []Course{}
	for _, c := range p.courses {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out, nil
}
