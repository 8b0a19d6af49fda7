package portal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coursemate/internal/catalog"
	"coursemate/internal/logger"
	"coursemate/internal/metrics"
	"coursemate/internal/notification"
	"coursemate/internal/portal"
	"coursemate/internal/registration"
	"coursemate/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first LoggedIn read.
type flakyStore struct {
	*session.MemoryStore

	mu     sync.Mutex
	failed bool
}

func (s *flakyStore) LoggedIn(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.failed {
		s.failed = true
		s.mu.Unlock()
		return false, errors.New("connection refused")
	}
	s.mu.Unlock()
	return s.MemoryStore.LoggedIn(ctx)
}

type fixture struct {
	portal       *portal.Portal
	store        *session.MemoryStore
	registration *registration.Service
	tracker      *notification.Tracker
}

func newFixture(t *testing.T, splashDelay time.Duration) *fixture {
	t.Helper()

	store := session.NewMemoryStore()
	reg := registration.NewService(registration.Options{
		Catalog:       catalog.NewStaticProvider(catalog.SampleCourses()),
		ApprovalDelay: time.Hour,
		DefaultLevel:  300,
		Logger:        logger.NewDiscard(),
		Metrics:       metrics.NewMock(),
	})
	t.Cleanup(reg.Close)
	tracker := notification.NewTracker(notification.SampleNotifications())

	p := portal.New(portal.Options{
		Store:         store,
		Registration:  reg,
		Notifications: tracker,
		SplashDelay:   splashDelay,
		Logger:        logger.NewDiscard(),
		Metrics:       metrics.NewMock(),
	})

	return &fixture{portal: p, store: store, registration: reg, tracker: tracker}
}

func booted(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t, 0)
	require.NoError(t, f.portal.Boot(context.Background()))
	return f
}

func TestPortal_Boot(t *testing.T) {
	ctx := context.Background()

	t.Run("SplashThenLogin", func(t *testing.T) {
		f := newFixture(t, 20*time.Millisecond)

		state, err := f.portal.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewSplash, state.View)

		_, err = f.portal.Login(ctx, "12345678AB", "secret")
		assert.ErrorIs(t, err, portal.ErrSplashActive)

		require.NoError(t, f.portal.Boot(ctx))

		state, err = f.portal.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewLogin, state.View)
		assert.False(t, state.LoggedIn)
	})

	t.Run("RestoredSessionSkipsSplash", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		require.NoError(t, f.store.SetLoggedIn(ctx, true))

		require.NoError(t, f.portal.Boot(ctx))

		state, err := f.portal.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewDashboard, state.View)
		assert.True(t, state.LoggedIn)
	})

	t.Run("SessionReadFailureFallsBackToLogin", func(t *testing.T) {
		store := &flakyStore{MemoryStore: session.NewMemoryStore()}
		p := portal.New(portal.Options{
			Store:   store,
			Logger:  logger.NewDiscard(),
			Metrics: metrics.NewMock(),
		})

		require.NoError(t, p.Boot(ctx))

		state, err := p.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewLogin, state.View)

		state, err = p.Login(ctx, "12345678AB", "secret")
		require.NoError(t, err)
		assert.Equal(t, portal.ViewDashboard, state.View)
		assert.True(t, state.LoggedIn)
	})

	t.Run("Cancelled", func(t *testing.T) {
		f := newFixture(t, time.Hour)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, f.portal.Boot(cctx), context.Canceled)

		state, err := f.portal.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewSplash, state.View)
	})
}

func TestPortal_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("AnyNonEmptyPair", func(t *testing.T) {
		for _, creds := range [][2]string{{"1", "x"}, {"12345678AB", "password"}, {" ", " "}} {
			f := booted(t)

			state, err := f.portal.Login(ctx, creds[0], creds[1])
			require.NoError(t, err)
			assert.Equal(t, portal.ViewDashboard, state.View)
			assert.True(t, state.LoggedIn)

			loggedIn, err := f.store.LoggedIn(ctx)
			require.NoError(t, err)
			assert.True(t, loggedIn)
		}
	})

	t.Run("EmptyFields", func(t *testing.T) {
		f := booted(t)

		for _, creds := range [][2]string{{"", "x"}, {"1", ""}, {"", ""}} {
			_, err := f.portal.Login(ctx, creds[0], creds[1])
			assert.ErrorIs(t, err, portal.ErrEmptyCredentials)
		}

		loggedIn, err := f.store.LoggedIn(ctx)
		require.NoError(t, err)
		assert.False(t, loggedIn)
	})

	t.Run("CancelledDuringDelay", func(t *testing.T) {
		f := newFixture(t, 0)
		p := portal.New(portal.Options{Store: f.store, LoginDelay: time.Hour, Logger: logger.NewDiscard()})
		require.NoError(t, p.Boot(ctx))

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		_, err := p.Login(cctx, "1", "x")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		loggedIn, err := f.store.LoggedIn(ctx)
		require.NoError(t, err)
		assert.False(t, loggedIn)
	})
}

func TestPortal_Logout(t *testing.T) {
	ctx := context.Background()
	f := booted(t)

	_, err := f.portal.Login(ctx, "1", "x")
	require.NoError(t, err)
	_, err = f.portal.Navigate(ctx, portal.ViewRegistration)
	require.NoError(t, err)

	for _, id := range []int{1, 2, 3, 4, 7} {
		_, err := f.registration.Toggle(ctx, id)
		require.NoError(t, err)
	}
	_, err = f.registration.Submit(ctx)
	require.NoError(t, err)

	state, err := f.portal.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, portal.ViewLogin, state.View)
	assert.False(t, state.LoggedIn)

	loggedIn, err := f.store.LoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, loggedIn)

	summary, err := f.registration.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusIdle, summary.Status)
	assert.Empty(t, summary.SelectedIDs)

	_, err = f.portal.Navigate(ctx, portal.ViewDashboard)
	assert.ErrorIs(t, err, portal.ErrNotLoggedIn)

	state, err = f.portal.Login(ctx, "1", "x")
	require.NoError(t, err)
	assert.Equal(t, portal.ViewDashboard, state.View)
}

func TestPortal_Navigate(t *testing.T) {
	ctx := context.Background()

	t.Run("LoggedOut", func(t *testing.T) {
		f := booted(t)

		_, err := f.portal.Navigate(ctx, portal.ViewResults)
		assert.ErrorIs(t, err, portal.ErrNotLoggedIn)
	})

	t.Run("DashboardToEveryFeature", func(t *testing.T) {
		f := booted(t)
		_, err := f.portal.Login(ctx, "1", "x")
		require.NoError(t, err)

		for _, v := range portal.FeatureViews {
			state, err := f.portal.Navigate(ctx, v)
			require.NoError(t, err, v)
			assert.Equal(t, v, state.View)
			assert.Equal(t, v == portal.ViewTimetable || v == portal.ViewProfile, state.ComingSoon)

			state, err = f.portal.Navigate(ctx, portal.ViewDashboard)
			require.NoError(t, err, v)
			assert.Equal(t, portal.ViewDashboard, state.View)
		}
	})

	t.Run("FeatureOnlyBackToDashboard", func(t *testing.T) {
		f := booted(t)
		_, err := f.portal.Login(ctx, "1", "x")
		require.NoError(t, err)
		_, err = f.portal.Navigate(ctx, portal.ViewResults)
		require.NoError(t, err)

		_, err = f.portal.Navigate(ctx, portal.ViewNotifications)
		assert.ErrorIs(t, err, portal.ErrInvalidTransition)

		_, err = f.portal.Navigate(ctx, portal.ViewLogin)
		assert.ErrorIs(t, err, portal.ErrInvalidTransition)

		state, err := f.portal.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, portal.ViewResults, state.View)
	})

	t.Run("UnknownView", func(t *testing.T) {
		f := booted(t)

		_, err := f.portal.Navigate(ctx, portal.View("grades"))
		assert.ErrorIs(t, err, portal.ErrUnknownView)
	})
}

func TestPortal_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := booted(t)

	_, err := f.portal.Dashboard(ctx)
	assert.ErrorIs(t, err, portal.ErrNotLoggedIn)

	_, err = f.portal.Login(ctx, "1", "x")
	require.NoError(t, err)

	dashboard, err := f.portal.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", dashboard.StudentName)
	assert.Equal(t, 2, dashboard.UnreadCount)
	require.Len(t, dashboard.Menu, 4)
	assert.Equal(t, portal.ViewNotifications, dashboard.Menu[3].View)
	assert.Equal(t, 2, dashboard.Menu[3].Badge)

	f.tracker.MarkAllRead()

	dashboard, err = f.portal.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dashboard.Menu[3].Badge)
}
