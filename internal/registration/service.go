package registration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"coursemate/internal/catalog"
	"coursemate/internal/clock"
	"coursemate/internal/metrics"

	"github.com/google/uuid"
)

type Options struct {
	Catalog       catalog.Provider
	Approver      Approver
	Publisher     Publisher
	Bounds        Bounds
	ApprovalDelay time.Duration
	DefaultLevel  int
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Service holds the registration draft of the single portal student.
type Service struct {
	catalog       catalog.Provider
	approver      Approver
	publisher     Publisher
	bounds        Bounds
	approvalDelay time.Duration
	defaultLevel  int
	logger        *slog.Logger
	metrics       *metrics.Metrics

	mu         sync.Mutex
	level      int
	courses    []catalog.Course
	loaded     bool
	selected   map[int]bool
	status     Status
	submission *Submission
	reason     string
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewService(opts Options) *Service {
	if opts.Approver == nil {
		opts.Approver = AutoApprover{}
	}
	if opts.Bounds == (Bounds{}) {
		opts.Bounds = DefaultBounds
	}
	if !catalog.ValidLevel(opts.DefaultLevel) {
		opts.DefaultLevel = 300
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		catalog:       opts.Catalog,
		approver:      opts.Approver,
		publisher:     opts.Publisher,
		bounds:        opts.Bounds,
		approvalDelay: opts.ApprovalDelay,
		defaultLevel:  opts.DefaultLevel,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		level:         opts.DefaultLevel,
		selected:      make(map[int]bool),
		status:        StatusIdle,
	}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.summaryLocked(), nil
}

// SelectLevel switches the catalog level and clears the selection.
func (s *Service) SelectLevel(ctx context.Context, level int) (*Summary, error) {
	if !catalog.ValidLevel(level) {
		return nil, fmt.Errorf("level %d: %w", level, catalog.ErrInvalidLevel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusIdle {
		return nil, ErrRegistrationFixed
	}

	courses, err := s.catalog.CoursesByLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("failed to load level %d: %w", level, err)
	}

	s.level = level
	s.courses = courses
	s.loaded = true
	s.selected = make(map[int]bool)

	return s.summaryLocked(), nil
}

// Toggle adds or removes a course of the current level from the selection.
func (s *Service) Toggle(ctx context.Context, courseID int) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusIdle {
		return nil, ErrRegistrationFixed
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	found := false
	for _, c := range s.courses {
		if c.ID == courseID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("course %d at level %d: %w", courseID, s.level, ErrCourseNotAtLevel)
	}

	if s.selected[courseID] {
		delete(s.selected, courseID)
	} else {
		s.selected[courseID] = true
	}

	return s.summaryLocked(), nil
}

// Submit moves an idle, in-range draft to pending and starts the approval
// timer.
func (s *Service) Submit(ctx context.Context) (*Summary, error) {
	s.mu.Lock()

	if s.status != StatusIdle {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	ids := s.selectedIDs()
	total := TotalCredits(ids, s.courses)
	if s.bounds.Classify(total) != Valid {
		s.mu.Unlock()
		return nil, fmt.Errorf("%d credit hours, need %d to %d: %w", total, s.bounds.Min, s.bounds.Max, ErrInvalidCredits)
	}

	sub := Submission{
		ID:           uuid.NewString(),
		Level:        s.level,
		CourseIDs:    ids,
		CourseCodes:  s.codes(ids),
		TotalCredits: total,
	}

	approvalCtx, cancel := context.WithCancel(context.Background())
	s.status = StatusPending
	s.submission = &sub
	s.reason = ""
	s.cancel = cancel
	s.wg.Add(1)
	go s.awaitDecision(approvalCtx, cancel, sub)

	summary := s.summaryLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "registration submitted",
		"submission_id", sub.ID,
		"level", sub.Level,
		"total_credits", sub.TotalCredits,
	)
	s.metrics.RecordRegistrationSubmitted(ctx, sub.Level)
	s.publish(ctx, sub, StatusPending, "")

	return summary, nil
}

// Reset cancels any pending approval and returns an empty draft at the
// default level.
func (s *Service) Reset(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = StatusIdle
	s.submission = nil
	s.reason = ""
	s.selected = make(map[int]bool)
	s.level = s.defaultLevel
	s.loaded = false

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.summaryLocked(), nil
}

// Close cancels a pending approval and waits for its goroutine to exit.
func (s *Service) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) awaitDecision(ctx context.Context, cancel context.CancelFunc, sub Submission) {
	defer s.wg.Done()
	defer cancel()

	if err := clock.Sleep(ctx, s.approvalDelay); err != nil {
		s.logger.Info("registration approval cancelled", "submission_id", sub.ID)
		return
	}

	status := StatusApproved
	decision, err := s.approver.Decide(ctx, sub)
	reason := decision.Reason
	switch {
	case ctx.Err() != nil:
		return
	case err != nil:
		status = StatusRejected
		reason = err.Error()
	case !decision.Approved:
		status = StatusRejected
		if reason == "" {
			reason = "registration rejected"
		}
	}

	s.mu.Lock()
	if s.status != StatusPending || s.submission == nil || s.submission.ID != sub.ID {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.reason = reason
	s.cancel = nil
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	s.logger.InfoContext(ctx, "registration decided", "submission_id", sub.ID, "status", status)
	s.metrics.RecordRegistrationDecided(ctx, string(status))
	s.publish(ctx, sub, status, reason)
}

func (s *Service) publish(ctx context.Context, sub Submission, status Status, reason string) {
	if s.publisher == nil {
		return
	}

	event := Event{
		ID:           uuid.NewString(),
		SubmissionID: sub.ID,
		Status:       status,
		Level:        sub.Level,
		CourseCodes:  sub.CourseCodes,
		TotalCredits: sub.TotalCredits,
		Reason:       reason,
		OccurredAt:   time.Now().UTC(),
	}
	start := time.Now()
	err := s.publisher.Publish(ctx, sub.ID, event)
	if s.metrics != nil {
		s.metrics.Events.RecordPublish(ctx, string(status), time.Since(start), err)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish registration event", "submission_id", sub.ID, "error", err)
	}
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	courses, err := s.catalog.CoursesByLevel(ctx, s.level)
	if err != nil {
		return fmt.Errorf("failed to load level %d: %w", s.level, err)
	}
	s.courses = courses
	s.loaded = true
	return nil
}

func (s *Service) selectedIDs() []int {
	ids := make([]int, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Service) codes(ids []int) []string {
	idx := catalog.Index(s.courses)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx[id].Code)
	}
	return out
}

func (s *Service) summaryLocked() *Summary {
	ids := s.selectedIDs()
	total := TotalCredits(ids, s.courses)
	creditStatus := s.bounds.Classify(total)

	views := make([]CourseView, 0, len(s.courses))
	compulsory := []CourseView{}
	elective := []CourseView{}
	for _, c := range s.courses {
		view := CourseView{Course: c, Selected: s.selected[c.ID]}
		views = append(views, view)
		switch c.Type {
		case catalog.Compulsory:
			compulsory = append(compulsory, view)
		case catalog.Elective:
			elective = append(elective, view)
		}
	}

	summary := &Summary{
		Level:        s.level,
		Courses:      views,
		Compulsory:   compulsory,
		Elective:     elective,
		SelectedIDs:  ids,
		TotalCredits: total,
		CreditStatus: creditStatus,
		Bounds:       s.bounds,
		Status:       s.status,
		CanSubmit:    creditStatus == Valid && s.status == StatusIdle,
		Reason:       s.reason,
	}
	if s.submission != nil {
		summary.SubmissionID = s.submission.ID
	}
	return summary
}
