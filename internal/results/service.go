package results

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"coursemate/internal/clock"
	"coursemate/internal/metrics"

	"github.com/go-playground/validator/v10"
)

type Service struct {
	provider Provider
	delay    time.Duration
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(provider Provider, delay time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		provider: provider,
		delay:    delay,
		validate: validator.New(),
		logger:   logger,
		metrics:  m,
	}
}

// Lookup waits out the lookup delay, then fetches and totals the results.
func (s *Service) Lookup(ctx context.Context, q Query) (*Report, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	if err := clock.Sleep(ctx, s.delay); err != nil {
		return nil, err
	}

	report, err := s.report(ctx, q)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordResultsViewed(ctx)
	return report, nil
}

// Export writes the results for q as a spreadsheet.
func (s *Service) Export(ctx context.Context, q Query, w io.Writer) error {
	q, err := s.normalize(q)
	if err != nil {
		return err
	}

	report, err := s.report(ctx, q)
	if err != nil {
		return err
	}

	if err := WriteWorkbook(w, report); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "results exported", "session", q.Session, "semester", q.Semester)
	s.metrics.RecordResultsExported(ctx)
	return nil
}

func (s *Service) normalize(q Query) (Query, error) {
	q.MatricNumber = strings.TrimSpace(q.MatricNumber)
	if err := s.validate.Struct(&q); err != nil {
		return q, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return q, nil
}

func (s *Service) report(ctx context.Context, q Query) (*Report, error) {
	results, err := s.provider.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	return BuildReport(q, results)
}
