package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	logins                 metric.Int64Counter
	registrationsSubmitted metric.Int64Counter
	registrationsDecided   metric.Int64Counter
	resultsViewed          metric.Int64Counter
	resultsExported        metric.Int64Counter
	notificationsRead      metric.Int64Counter

	Database     *DatabaseMetrics
	Events       *EventMetrics
	Runtime      *RuntimeMetrics
	Dependencies *DependencyMetrics
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.logins, err = meter.Int64Counter(
		"coursemate.session.logins",
		metric.WithDescription("Total number of accepted logins"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, err
	}

	m.registrationsSubmitted, err = meter.Int64Counter(
		"coursemate.registrations.submitted",
		metric.WithDescription("Total number of course registrations submitted"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	m.registrationsDecided, err = meter.Int64Counter(
		"coursemate.registrations.decided",
		metric.WithDescription("Course registrations that left the pending state, by outcome"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	m.resultsViewed, err = meter.Int64Counter(
		"coursemate.results.viewed",
		metric.WithDescription("Total number of results lookups"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.resultsExported, err = meter.Int64Counter(
		"coursemate.results.exported",
		metric.WithDescription("Total number of results spreadsheets generated"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	m.notificationsRead, err = meter.Int64Counter(
		"coursemate.notifications.read",
		metric.WithDescription("Notifications switched from unread to read"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.Events, err = NewEventMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.Runtime, err = NewRuntimeMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.Dependencies, err = NewDependencyMetrics(meter)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordLogin(ctx context.Context) {
	if m != nil && m.logins != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m *Metrics) RecordRegistrationSubmitted(ctx context.Context, level int) {
	if m != nil && m.registrationsSubmitted != nil {
		m.registrationsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.Int("level", level)))
	}
}

func (m *Metrics) RecordRegistrationDecided(ctx context.Context, outcome string) {
	if m != nil && m.registrationsDecided != nil {
		m.registrationsDecided.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (m *Metrics) RecordResultsViewed(ctx context.Context) {
	if m != nil && m.resultsViewed != nil {
		m.resultsViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordResultsExported(ctx context.Context) {
	if m != nil && m.resultsExported != nil {
		m.resultsExported.Add(ctx, 1)
	}
}

func (m *Metrics) RecordNotificationsRead(ctx context.Context, count int) {
	if m != nil && m.notificationsRead != nil && count > 0 {
		m.notificationsRead.Add(ctx, int64(count))
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:     &DatabaseMetrics{},
		Events:       &EventMetrics{},
		Runtime:      &RuntimeMetrics{},
		Dependencies: &DependencyMetrics{},
	}
}
