package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DependencyMetrics records the readiness probes of Postgres and Redis.
type DependencyMetrics struct {
	responseTime metric.Float64Histogram
	failures     metric.Int64Counter
}

func NewDependencyMetrics(meter metric.Meter) (*DependencyMetrics, error) {
	dm := &DependencyMetrics{}

	var err error

	// Buckets: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s
	dm.responseTime, err = meter.Float64Histogram(
		"dependency.response_time",
		metric.WithDescription("Dependency health check response time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return nil, err
	}

	dm.failures, err = meter.Int64Counter(
		"dependency.check_failures",
		metric.WithDescription("Failed dependency health checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

func (dm *DependencyMetrics) RecordCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if dm == nil || dm.responseTime == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("dependency", dependency))
	dm.responseTime.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.failures.Add(ctx, 1, attrs)
	}
}
