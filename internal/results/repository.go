package results

import (
	"context"
	"fmt"
	"time"

	"coursemate/internal/metrics"

	"github.com/uptrace/bun"
)

// Repository reads results from the course_results table, keyed by session
// and semester.
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

func (r *Repository) Fetch(ctx context.Context, q Query) ([]CourseResult, error) {
	start := time.Now()
	results := []CourseResult{}
	err := r.db.NewSelect().
		Model(&results).
		Where("session = ?", q.Session).
		Where("semester = ?", q.Semester).
		Order("id ASC").
		Scan(ctx)

	r.recordQuery(ctx, "select", start, err)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// Seed fills an empty table with the sample results for every session and
// semester. A table that already has rows is left alone.
func (r *Repository) Seed(ctx context.Context, sample []CourseResult) error {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*CourseResult)(nil)).Count(ctx)
	r.recordQuery(ctx, "select", start, err)
	if err != nil {
		return fmt.Errorf("failed to count results: %w", err)
	}
	if count > 0 || len(sample) == 0 {
		return nil
	}

	rows := make([]CourseResult, 0, len(Sessions)*len(Semesters)*len(sample))
	for _, session := range Sessions {
		for _, semester := range Semesters {
			for _, res := range sample {
				res.ID = 0
				res.Session = session
				res.Semester = semester
				rows = append(rows, res)
			}
		}
	}

	start = time.Now()
	_, err = r.db.NewInsert().Model(&rows).Exec(ctx)
	r.recordQuery(ctx, "insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to seed results: %w", err)
	}
	return nil
}

func (r *Repository) recordQuery(ctx context.Context, op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.Database.RecordQuery(ctx, op, "course_results", time.Since(start), err)
	}
}
