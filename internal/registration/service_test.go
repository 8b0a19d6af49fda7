package registration_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"coursemate/internal/catalog"
	"coursemate/internal/logger"
	"coursemate/internal/metrics"
	"coursemate/internal/registration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []registration.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	event, ok := value.(registration.Event)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) statuses() []registration.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]registration.Status, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

func newService(t *testing.T, opts registration.Options) *registration.Service {
	t.Helper()

	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStaticProvider(catalog.SampleCourses())
	}
	opts.Logger = logger.NewDiscard()
	opts.Metrics = metrics.NewMock()
	opts.DefaultLevel = 300

	svc := registration.NewService(opts)
	t.Cleanup(svc.Close)
	return svc
}

func selectCourses(t *testing.T, svc *registration.Service, ids ...int) *registration.Summary {
	t.Helper()

	var summary *registration.Summary
	for _, id := range ids {
		var err error
		summary, err = svc.Toggle(context.Background(), id)
		require.NoError(t, err)
	}
	return summary
}

func waitForStatus(t *testing.T, svc *registration.Service, want registration.Status) *registration.Summary {
	t.Helper()

	var last *registration.Summary
	require.Eventually(t, func() bool {
		summary, err := svc.Summary(context.Background())
		if err != nil {
			return false
		}
		last = summary
		return summary.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestService_Summary_DefaultLevel(t *testing.T) {
	svc := newService(t, registration.Options{})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 300, summary.Level)
	assert.Len(t, summary.Courses, 8)
	assert.Len(t, summary.Compulsory, 5)
	assert.Len(t, summary.Elective, 3)
	for _, c := range summary.Elective {
		assert.Equal(t, catalog.Elective, c.Type)
	}
	assert.Empty(t, summary.SelectedIDs)
	assert.Equal(t, 0, summary.TotalCredits)
	assert.Equal(t, registration.BelowMinimum, summary.CreditStatus)
	assert.Equal(t, registration.StatusIdle, summary.Status)
	assert.False(t, summary.CanSubmit)
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("SelectAndDeselect", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		summary := selectCourses(t, svc, 1, 5)
		assert.Equal(t, []int{1, 5}, summary.SelectedIDs)
		assert.Equal(t, 5, summary.TotalCredits)
		assert.True(t, summary.Courses[0].Selected)

		summary, err := svc.Toggle(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{5}, summary.SelectedIDs)
		assert.Equal(t, 2, summary.TotalCredits)
	})

	t.Run("CourseNotAtLevel", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		_, err := svc.Toggle(ctx, 42)
		assert.ErrorIs(t, err, registration.ErrCourseNotAtLevel)
	})

	t.Run("SubmissionEnabledOnlyInRange", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		summary := selectCourses(t, svc, 1, 2, 3, 4)
		assert.Equal(t, 12, summary.TotalCredits)
		assert.False(t, summary.CanSubmit)

		summary = selectCourses(t, svc, 7)
		assert.Equal(t, 15, summary.TotalCredits)
		assert.Equal(t, registration.Valid, summary.CreditStatus)
		assert.True(t, summary.CanSubmit)

		summary = selectCourses(t, svc, 5, 6, 8)
		assert.Equal(t, 21, summary.TotalCredits)
		assert.True(t, summary.CanSubmit)
	})
}

func TestService_SelectLevel(t *testing.T) {
	ctx := context.Background()

	t.Run("ClearsSelection", func(t *testing.T) {
		svc := newService(t, registration.Options{})
		selectCourses(t, svc, 1, 2)

		summary, err := svc.SelectLevel(ctx, 200)
		require.NoError(t, err)
		assert.Equal(t, 200, summary.Level)
		assert.Empty(t, summary.Courses)
		assert.Empty(t, summary.SelectedIDs)
		assert.Equal(t, 0, summary.TotalCredits)
		assert.Equal(t, registration.BelowMinimum, summary.CreditStatus)
	})

	t.Run("EmptyLevel", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		summary, err := svc.SelectLevel(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, summary.Compulsory)
		require.NotNil(t, summary.Elective)
		assert.Empty(t, summary.Compulsory)
		assert.Empty(t, summary.Elective)
		assert.Equal(t, 0, summary.TotalCredits)
		assert.Equal(t, registration.BelowMinimum, summary.CreditStatus)
		assert.False(t, summary.CanSubmit)

		raw, err := json.Marshal(summary)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"compulsory":[]`)
		assert.Contains(t, string(raw), `"elective":[]`)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		_, err := svc.SelectLevel(ctx, 700)
		assert.ErrorIs(t, err, catalog.ErrInvalidLevel)
	})

	t.Run("ToggleAfterLevelChange", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		_, err := svc.SelectLevel(ctx, 100)
		require.NoError(t, err)

		_, err = svc.Toggle(ctx, 1)
		assert.ErrorIs(t, err, registration.ErrCourseNotAtLevel)
	})
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("BelowMinimum", func(t *testing.T) {
		svc := newService(t, registration.Options{})
		selectCourses(t, svc, 1)

		_, err := svc.Submit(ctx)
		assert.ErrorIs(t, err, registration.ErrInvalidCredits)
	})

	t.Run("PendingThenApproved", func(t *testing.T) {
		publisher := &recordingPublisher{}
		svc := newService(t, registration.Options{
			Publisher:     publisher,
			ApprovalDelay: 20 * time.Millisecond,
		})
		selectCourses(t, svc, 1, 2, 3, 4, 7)

		summary, err := svc.Submit(ctx)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusPending, summary.Status)
		assert.False(t, summary.CanSubmit)
		assert.NotEmpty(t, summary.SubmissionID)

		_, err = svc.Submit(ctx)
		assert.ErrorIs(t, err, registration.ErrAlreadySubmitted)

		_, err = svc.Toggle(ctx, 5)
		assert.ErrorIs(t, err, registration.ErrRegistrationFixed)

		decided := waitForStatus(t, svc, registration.StatusApproved)
		assert.Equal(t, summary.SubmissionID, decided.SubmissionID)

		require.Eventually(t, func() bool { return len(publisher.statuses()) == 2 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []registration.Status{registration.StatusPending, registration.StatusApproved}, publisher.statuses())

		publisher.mu.Lock()
		event := publisher.events[0]
		publisher.mu.Unlock()
		assert.Equal(t, []string{"CSC301", "CSC302", "CSC303", "CSC304", "MAT301"}, event.CourseCodes)
		assert.Equal(t, 15, event.TotalCredits)
		assert.NotEqual(t, event.SubmissionID, event.ID)

		payload, err := json.Marshal(event)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"status":"pending"`)
	})

	t.Run("Rejected", func(t *testing.T) {
		svc := newService(t, registration.Options{
			Approver: registration.ApproverFunc(func(context.Context, registration.Submission) (registration.Decision, error) {
				return registration.Decision{Approved: false, Reason: "fees outstanding"}, nil
			}),
		})
		selectCourses(t, svc, 1, 2, 3, 4, 7)

		_, err := svc.Submit(ctx)
		require.NoError(t, err)

		summary := waitForStatus(t, svc, registration.StatusRejected)
		assert.Equal(t, "fees outstanding", summary.Reason)
		assert.False(t, summary.CanSubmit)
	})

	t.Run("ApproverError", func(t *testing.T) {
		svc := newService(t, registration.Options{
			Approver: registration.ApproverFunc(func(context.Context, registration.Submission) (registration.Decision, error) {
				return registration.Decision{}, errors.New("registry offline")
			}),
		})
		selectCourses(t, svc, 1, 2, 3, 4, 7)

		_, err := svc.Submit(ctx)
		require.NoError(t, err)

		summary := waitForStatus(t, svc, registration.StatusRejected)
		assert.Equal(t, "registry offline", summary.Reason)
	})
}

func TestService_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("CancelsPendingApproval", func(t *testing.T) {
		publisher := &recordingPublisher{}
		svc := newService(t, registration.Options{
			Publisher:     publisher,
			ApprovalDelay: time.Hour,
		})
		selectCourses(t, svc, 1, 2, 3, 4, 7)

		_, err := svc.Submit(ctx)
		require.NoError(t, err)

		summary, err := svc.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusIdle, summary.Status)
		assert.Empty(t, summary.SelectedIDs)
		assert.Empty(t, summary.SubmissionID)

		svc.Close()
		assert.Equal(t, []registration.Status{registration.StatusPending}, publisher.statuses())
	})

	t.Run("RestoresDefaultLevel", func(t *testing.T) {
		svc := newService(t, registration.Options{})

		_, err := svc.SelectLevel(ctx, 400)
		require.NoError(t, err)

		summary, err := svc.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, 300, summary.Level)
		assert.Len(t, summary.Courses, 8)
	})

	t.Run("AfterApproval", func(t *testing.T) {
		svc := newService(t, registration.Options{})
		selectCourses(t, svc, 1, 2, 3, 4, 7)

		_, err := svc.Submit(ctx)
		require.NoError(t, err)
		waitForStatus(t, svc, registration.StatusApproved)

		summary, err := svc.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusIdle, summary.Status)

		summary = selectCourses(t, svc, 1)
		assert.Equal(t, 3, summary.TotalCredits)
	})
}

func TestService_CanSubmitMatchesBounds(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, registration.Options{})
	courses := catalog.SampleCourses()

	for mask := 0; mask < 1<<len(courses); mask++ {
		_, err := svc.Reset(ctx)
		require.NoError(t, err)

		want := 0
		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		for i, c := range courses {
			if mask&(1<<i) != 0 {
				summary, err = svc.Toggle(ctx, c.ID)
				require.NoError(t, err)
				want += c.CreditHours
			}
		}

		assert.Equal(t, want, summary.TotalCredits, "mask %08b", mask)
		assert.Equal(t, want >= 15 && want <= 24, summary.CanSubmit, "mask %08b", mask)
	}
}
