package telemetry

import (
	"context"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	meter  = otel.Meter(InstrumentationName)
	tracer = otel.Tracer(InstrumentationName)

	submissions         = newCounter("dtl.submissions", "Task and day submissions sent to the backend")
	attachmentsRejected = newCounter("dtl.attachments.rejected", "Files rejected by attachment validation")
	apiRequests         = newCounter("dtl.api.requests", "Requests made to the daily task backend")
)

func newCounter(name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit("{count}"))
	if err != nil {
		slog.Error("failed to create metric", "name", name, "error", err)
	}
	return counter
}

// Tracer returns the client's tracer. It follows the global provider
// installed by Setup.
func Tracer() trace.Tracer { return tracer }

// RecordSubmission counts one submission. kind is "create", "rework"
// or "day".
func RecordSubmission(ctx context.Context, kind string, err error) {
	if submissions == nil {
		return
	}
	submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	))
}

func RecordAttachmentsRejected(ctx context.Context, n int) {
	if attachmentsRejected == nil || n <= 0 {
		return
	}
	attachmentsRejected.Add(ctx, int64(n))
}

func RecordAPIRequest(ctx context.Context, operation string, status int) {
	if apiRequests == nil {
		return
	}
	apiRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
	))
}
