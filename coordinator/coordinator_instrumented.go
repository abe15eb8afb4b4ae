package coordinator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"dinnerplanner"
	"dinnerplanner/planner"
)

// InstrumentedCoordinator wraps a Coordinator with spans and run metrics.
type InstrumentedCoordinator struct {
	inner  *Coordinator
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedCoordinator routes the inner coordinator's phase spans
// through tracer.
func NewInstrumentedCoordinator(inner *Coordinator, tracer trace.Tracer, meter metric.Meter) *InstrumentedCoordinator {
	inner.tracer = tracer
	return &InstrumentedCoordinator{inner: inner, tracer: tracer, meter: meter}
}

func (c *InstrumentedCoordinator) Run(ctx context.Context, req dinnerplanner.PlanRequest) (dinnerplanner.PlanResult, error) {
	ctx, span := c.tracer.Start(ctx, "InstrumentedCoordinator.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("household_id", req.HouseholdID),
		attribute.String("horizon.mode", string(req.Horizon.Mode)),
	)

	runsCounter, _ := c.meter.Int64Counter("plan_runs_total",
		metric.WithDescription("Total number of planning runs started"))
	runsFailedCounter, _ := c.meter.Int64Counter("plan_runs_failed_total",
		metric.WithDescription("Total number of planning runs that failed, by error kind"))
	idempotentCounter, _ := c.meter.Int64Counter("plan_idempotent_hits_total",
		metric.WithDescription("Total number of runs answered from the plan store"))
	daysCounter, _ := c.meter.Int64Counter("plan_days_total",
		metric.WithDescription("Total number of dinners planned"))
	decisionsCounter, _ := c.meter.Int64Counter("stability_decisions_total",
		metric.WithDescription("Total number of stability band decisions, by outcome"))

	groceryGauge, _ := c.meter.Int64Gauge("grocery_items",
		metric.WithDescription("Number of consolidated grocery items in the latest plan"))

	durationHist, _ := c.meter.Float64Histogram("plan_duration_seconds",
		metric.WithDescription("Duration of a planning run in seconds"))

	runsCounter.Add(ctx, 1)
	start := time.Now()

	res, err := c.inner.Run(ctx, req)
	durationHist.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		kind := planner.KindOf(err)
		runsFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		span.SetStatus(codes.Error, "planning failed")
		span.SetAttributes(attribute.String("error.kind", kind))
		span.RecordError(err)
		return res, err
	}

	if res.Idempotent {
		idempotentCounter.Add(ctx, 1)
	} else {
		daysCounter.Add(ctx, int64(len(res.PlanSet.Days)))
		for _, d := range res.PlanSet.Decisions {
			decisionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(d.Outcome))))
		}
	}
	groceryGauge.Record(ctx, int64(len(res.PlanSet.Grocery)))

	span.SetAttributes(
		attribute.String("plan_set.id", res.PlanSet.ID.String()),
		attribute.Int("plan_set.days", len(res.PlanSet.Days)),
		attribute.Bool("plan_set.idempotent", res.Idempotent),
	)
	slog.Info("COORDINATOR: Instrumented run complete", "plan_set_id", res.PlanSet.ID, "idempotent", res.Idempotent)
	return res, nil
}
