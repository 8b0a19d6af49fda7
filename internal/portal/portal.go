package portal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"coursemate/internal/clock"
	"coursemate/internal/metrics"
	"coursemate/internal/registration"
	"coursemate/internal/session"
)

// DraftResetter clears the registration draft on logout.
type DraftResetter interface {
	Reset(ctx context.Context) (*registration.Summary, error)
}

// UnreadCounter feeds the notifications badge.
type UnreadCounter interface {
	UnreadCount() int
}

type Options struct {
	Store         session.Store
	Registration  DraftResetter
	Notifications UnreadCounter
	StudentName   string
	SplashDelay   time.Duration
	LoginDelay    time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Portal routes the single student between views. The persisted session
// flag decides whether the student is logged in.
type Portal struct {
	store         session.Store
	registration  DraftResetter
	notifications UnreadCounter
	studentName   string
	splashDelay   time.Duration
	loginDelay    time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics

	mu   sync.Mutex
	view View
}

func New(opts Options) *Portal {
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StudentName == "" {
		opts.StudentName = "John Doe"
	}

	return &Portal{
		store:         opts.Store,
		registration:  opts.Registration,
		notifications: opts.Notifications,
		studentName:   opts.StudentName,
		splashDelay:   opts.SplashDelay,
		loginDelay:    opts.LoginDelay,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		view:          ViewSplash,
	}
}

// Boot resolves the start-up view. A persisted login skips the splash and
// lands on the dashboard; otherwise the splash shows for the splash delay
// before the login form. An unreadable session counts as logged out.
// Boot blocks until then or until ctx is done.
func (p *Portal) Boot(ctx context.Context) error {
	loggedIn, err := p.store.LoggedIn(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read session, showing login", "error", err)
		loggedIn = false
	}
	if loggedIn {
		p.setView(ViewSplash, ViewDashboard)
		p.logger.InfoContext(ctx, "session restored, skipping splash")
		return nil
	}

	if err := clock.Sleep(ctx, p.splashDelay); err != nil {
		return err
	}

	p.setView(ViewSplash, ViewLogin)
	p.logger.InfoContext(ctx, "splash finished")
	return nil
}

func (p *Portal) State(ctx context.Context) (*State, error) {
	loggedIn, err := p.store.LoggedIn(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	view := p.view
	p.mu.Unlock()

	return &State{View: view, LoggedIn: loggedIn, ComingSoon: view.ComingSoon()}, nil
}

// LoggedIn reports the persisted session flag.
func (p *Portal) LoggedIn(ctx context.Context) (bool, error) {
	return p.store.LoggedIn(ctx)
}

// Login accepts any non-empty JAMB number and password after the login delay.
func (p *Portal) Login(ctx context.Context, jambNumber, password string) (*State, error) {
	if jambNumber == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	p.mu.Lock()
	view := p.view
	p.mu.Unlock()
	if view == ViewSplash {
		return nil, ErrSplashActive
	}

	loggedIn, err := p.store.LoggedIn(ctx)
	if err != nil {
		return nil, err
	}
	if loggedIn {
		return p.State(ctx)
	}

	if err := clock.Sleep(ctx, p.loginDelay); err != nil {
		return nil, err
	}

	if err := p.store.SetLoggedIn(ctx, true); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.view = ViewDashboard
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "student logged in", "jamb_number", jambNumber)
	p.metrics.RecordLogin(ctx)

	return &State{View: ViewDashboard, LoggedIn: true}, nil
}

// Logout clears the session flag, resets the registration draft and shows
// the login form.
func (p *Portal) Logout(ctx context.Context) (*State, error) {
	if err := p.store.SetLoggedIn(ctx, false); err != nil {
		return nil, err
	}

	if p.registration != nil {
		if _, err := p.registration.Reset(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to reset registration on logout", "error", err)
		}
	}

	p.mu.Lock()
	if p.view != ViewSplash {
		p.view = ViewLogin
	}
	view := p.view
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "student logged out")
	return &State{View: view, LoggedIn: false}, nil
}

// Navigate moves between the dashboard and the feature views. Feature views
// lead only back to the dashboard.
func (p *Portal) Navigate(ctx context.Context, to View) (*State, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%q: %w", to, ErrUnknownView)
	}

	loggedIn, err := p.store.LoggedIn(ctx)
	if err != nil {
		return nil, err
	}
	if !loggedIn {
		return nil, ErrNotLoggedIn
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.view
	if !canNavigate(from, to) {
		return nil, fmt.Errorf("%s to %s: %w", from, to, ErrInvalidTransition)
	}
	p.view = to

	return &State{View: to, LoggedIn: true, ComingSoon: to.ComingSoon()}, nil
}

func canNavigate(from, to View) bool {
	switch {
	case from == to:
		return true
	case to == ViewDashboard:
		// a restored session may still show the login form
		return from.IsFeature() || from == ViewLogin
	case to.IsFeature():
		return from == ViewDashboard
	default:
		return false
	}
}

func (p *Portal) Dashboard(ctx context.Context) (*Dashboard, error) {
	loggedIn, err := p.store.LoggedIn(ctx)
	if err != nil {
		return nil, err
	}
	if !loggedIn {
		return nil, ErrNotLoggedIn
	}

	unread := 0
	if p.notifications != nil {
		unread = p.notifications.UnreadCount()
	}

	p.mu.Lock()
	view := p.view
	p.mu.Unlock()

	return &Dashboard{
		StudentName: p.studentName,
		View:        view,
		UnreadCount: unread,
		Menu: []MenuItem{
			{View: ViewRegistration, Title: "Course Registration", Description: "Register for new courses"},
			{View: ViewResults, Title: "Check Results", Description: "View academic results"},
			{View: ViewTimetable, Title: "Download Timetable", Description: "Get academic schedules"},
			{View: ViewNotifications, Title: "Notifications", Description: "View updates and alerts", Badge: unread},
		},
	}, nil
}

func (p *Portal) setView(from, to View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view == from {
		p.view = to
	}
}
