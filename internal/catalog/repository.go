package catalog

import (
	"context"
	"fmt"
	"time"

	"coursemate/internal/metrics"

	"github.com/uptrace/bun"
)

// Repository reads the catalog from the courses table.
type Repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) *Repository {
	return &Repository{
		db:      db,
		metrics: m,
	}
}

func (r *Repository) Courses(ctx context.Context) ([]Course, error) {
	start := time.Now()
	courses := []Course{}
	err := r.db.NewSelect().Model(&courses).Order("id ASC").Scan(ctx)

	r.recordQuery(ctx, "select", start, err)

	return courses, err
}

func (r *Repository) CoursesByLevel(ctx context.Context, level int) ([]Course, error) {
	if !ValidLevel(level) {
		return nil, fmt.Errorf("level %d: %w", level, ErrInvalidLevel)
	}

	start := time.Now()
	courses := []Course{}
	err := r.db.NewSelect().
		Model(&courses).
		Where("level = ?", level).
		Order("id ASC").
		Scan(ctx)

	r.recordQuery(ctx, "select", start, err)

	return courses, err
}

// Seed inserts the given courses, leaving rows that already exist untouched.
func (r *Repository) Seed(ctx context.Context, courses []Course) error {
	if len(courses) == 0 {
		return nil
	}

	start := time.Now()
	_, err := r.db.NewInsert().
		Model(&courses).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)

	r.recordQuery(ctx, "insert", start, err)

	if err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}
	return nil
}

func (r *Repository) recordQuery(ctx context.Context, op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.Database.RecordQuery(ctx, op, "courses", time.Since(start), err)
	}
}
