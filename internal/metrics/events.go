package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics tracks registration events handed to NATS or Kafka.
type EventMetrics struct {
	eventsPublished metric.Int64Counter
	publishDuration metric.Float64Histogram
	publishErrors   metric.Int64Counter
}

func NewEventMetrics(meter metric.Meter) (*EventMetrics, error) {
	em := &EventMetrics{}

	var err error

	em.eventsPublished, err = meter.Int64Counter(
		"messaging.messages.published",
		metric.WithDescription("Total number of registration events published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 100µs, 500µs, 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s
	em.publishDuration, err = meter.Float64Histogram(
		"messaging.message.publish_duration",
		metric.WithDescription("Time spent publishing a registration event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001,
			0.0005,
			0.001,
			0.005,
			0.01,
			0.025,
			0.05,
			0.1,
			0.25,
			0.5,
			1.0,
		),
	)
	if err != nil {
		return nil, err
	}

	em.publishErrors, err = meter.Int64Counter(
		"messaging.message.errors",
		metric.WithDescription("Registration events that failed to publish"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

func (em *EventMetrics) RecordPublish(ctx context.Context, status string, duration time.Duration, err error) {
	if em == nil || em.eventsPublished == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	em.eventsPublished.Add(ctx, 1, attrs)
	em.publishDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		em.publishErrors.Add(ctx, 1, attrs)
	}
}
