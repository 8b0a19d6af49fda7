package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursemate/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := metrics.New(provider.Meter("coursemate-test"))
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("DomainCounters", func(t *testing.T) {
		m.RecordLogin(ctx)
		m.RecordLogin(ctx)
		m.RecordRegistrationSubmitted(ctx, 300)
		m.RecordRegistrationDecided(ctx, "approved")
		m.RecordResultsViewed(ctx)
		m.RecordResultsExported(ctx)
		m.RecordNotificationsRead(ctx, 2)
		m.RecordNotificationsRead(ctx, 0)

		got := collect(t, reader)
		assert.Equal(t, int64(2), sumOf(t, got["coursemate.session.logins"]))
		assert.Equal(t, int64(1), sumOf(t, got["coursemate.registrations.submitted"]))
		assert.Equal(t, int64(1), sumOf(t, got["coursemate.registrations.decided"]))
		assert.Equal(t, int64(1), sumOf(t, got["coursemate.results.viewed"]))
		assert.Equal(t, int64(1), sumOf(t, got["coursemate.results.exported"]))
		assert.Equal(t, int64(2), sumOf(t, got["coursemate.notifications.read"]))
	})

	t.Run("DatabaseQueries", func(t *testing.T) {
		m.Database.RecordQuery(ctx, "select", "courses", 3*time.Millisecond, nil)
		m.Database.RecordQuery(ctx, "select", "courses", 4*time.Millisecond, errors.New("boom"))

		got := collect(t, reader)
		hist, ok := got["db.query.duration"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
		assert.Equal(t, int64(1), sumOf(t, got["db.query.errors"]))
	})

	t.Run("EventPublishes", func(t *testing.T) {
		m.Events.RecordPublish(ctx, "pending", time.Millisecond, nil)
		m.Events.RecordPublish(ctx, "approved", 2*time.Millisecond, errors.New("no broker"))

		got := collect(t, reader)
		assert.Equal(t, int64(2), sumOf(t, got["messaging.messages.published"]))
		assert.Equal(t, int64(1), sumOf(t, got["messaging.message.errors"]))
	})

	t.Run("Runtime", func(t *testing.T) {
		got := collect(t, reader)

		gauge, ok := got["runtime.go.goroutines"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Positive(t, gauge.DataPoints[0].Value)

		_, ok = got["service.uptime"]
		assert.True(t, ok)
	})
}

func TestNewMock(t *testing.T) {
	m := metrics.NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordLogin(ctx)
		m.RecordRegistrationSubmitted(ctx, 100)
		m.RecordRegistrationDecided(ctx, "rejected")
		m.RecordResultsViewed(ctx)
		m.RecordResultsExported(ctx)
		m.RecordNotificationsRead(ctx, 1)
		m.Database.RecordQuery(ctx, "select", "courses", time.Millisecond, nil)
		m.Events.RecordPublish(ctx, "pending", time.Millisecond, nil)
	})

	var nilMetrics *metrics.Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordLogin(ctx) })
}
