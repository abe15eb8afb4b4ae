// Package coordinator runs planning requests end to end: it loads one
// consistent snapshot, answers repeated requests from the plan store, bands
// new plans against the household's active one, persists and narrates.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dinnerplanner"
	"dinnerplanner/horizon"
	"dinnerplanner/planner"
	"dinnerplanner/stability"
	"dinnerplanner/tools/storage"
)

type Options struct {
	HistoryLimit int
	Narrator     dinnerplanner.Narrator
	Logger       dinnerplanner.PlanLogger
	Now          func() time.Time
}

type Coordinator struct {
	src          storage.Sources
	plans        storage.PlanStore
	orch         *horizon.Orchestrator
	narrator     dinnerplanner.Narrator
	logger       dinnerplanner.PlanLogger
	now          func() time.Time
	historyLimit int
	tracer       trace.Tracer
}

func New(src storage.Sources, plans storage.PlanStore, orch *horizon.Orchestrator, opts Options) *Coordinator {
	c := &Coordinator{
		src:          src,
		plans:        plans,
		orch:         orch,
		narrator:     opts.Narrator,
		logger:       opts.Logger,
		now:          opts.Now,
		historyLimit: opts.HistoryLimit,
		tracer:       otel.Tracer(dinnerplanner.TracerNamePlanner),
	}
	if c.narrator == nil {
		c.narrator = TemplateNarrator{}
	}
	if c.logger == nil {
		c.logger = dinnerplanner.NewNoOpPlanLogger()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Run plans req. An identical request against unchanged inventory and
// calendar returns the stored plan with Idempotent set.
func (c *Coordinator) Run(ctx context.Context, req dinnerplanner.PlanRequest) (dinnerplanner.PlanResult, error) {
	start := time.Now()
	now := req.Now
	if now.IsZero() {
		now = c.now()
	}

	slog.Info("COORDINATOR: Starting run", "household_id", req.HouseholdID, "mode", req.Horizon.Mode)

	runLog := dinnerplanner.PlanLog{Timestamp: now, HouseholdID: req.HouseholdID}
	res, err := c.run(ctx, req, now, &runLog)
	runLog.Duration = time.Since(start)
	if err != nil {
		runLog.Error, runLog.ErrorKind = err.Error(), planner.KindOf(err)
		slog.Error("COORDINATOR: Run failed", "household_id", req.HouseholdID, "kind", runLog.ErrorKind, "error", err)
	} else {
		slog.Info("RESULT: Plan ready",
			"household_id", req.HouseholdID,
			"plan_set_id", res.PlanSet.ID,
			"days", len(res.PlanSet.Days),
			"idempotent", res.Idempotent,
			"duration", runLog.Duration)
	}

	if lerr := c.logger.LogRun(runLog); lerr != nil {
		slog.Warn("COORDINATOR: Failed to log run", "error", lerr)
	}
	return res, err
}

func (c *Coordinator) run(ctx context.Context, req dinnerplanner.PlanRequest, now time.Time, runLog *dinnerplanner.PlanLog) (dinnerplanner.PlanResult, error) {
	var snap storage.Snapshot
	err := c.phase(ctx, "LoadSnapshot", func(ctx context.Context) (err error) {
		snap, err = storage.LoadSnapshot(ctx, c.src, req.HouseholdID, c.historyLimit)
		return err
	})
	if err != nil {
		return dinnerplanner.PlanResult{}, err
	}
	slog.Info("COORDINATOR: Snapshot loaded",
		"recipes", len(snap.Recipes),
		"lots", len(snap.Lots),
		"calendar_blocks", len(snap.Blocks),
		"history", len(snap.History))

	in := horizon.Input{
		Household: snap.Household,
		Now:       now,
		Horizon:   req.Horizon,
		Recipes:   snap.Recipes,
		Lots:      snap.Lots,
		Blocks:    snap.Blocks,
		History:   snap.History,
		Exclude:   req.Exclude,
		Overrides: req.Overrides,
	}
	dates, _, err := c.orch.Dates(in)
	if err != nil {
		return dinnerplanner.PlanResult{}, err
	}
	key := c.orch.StableKey(in)
	runLog.StableKey = key

	cached, err := c.plans.FindByKey(ctx, key)
	switch {
	case err == nil && !cached.Status.Terminal() && cached.CoversDates(dates):
		slog.Info("COORDINATOR: Idempotent hit", "stable_key", key, "plan_set_id", cached.ID)
		return c.finish(ctx, cached, true, runLog), nil
	case err != nil && !errors.Is(err, storage.ErrPlanNotFound):
		return dinnerplanner.PlanResult{}, fmt.Errorf("failed to look up plan %s: %w", key, err)
	}

	active, err := c.plans.FindActive(ctx, req.HouseholdID)
	supersede := false
	switch {
	case err == nil && !active.Status.Terminal():
		in.Existing = active.Existing()
		supersede = active.StableKey != key
		slog.Info("COORDINATOR: Banding against active plan", "plan_set_id", active.ID, "days", len(active.Days))
	case err != nil && !errors.Is(err, storage.ErrPlanNotFound):
		return dinnerplanner.PlanResult{}, fmt.Errorf("failed to look up active plan: %w", err)
	}

	var ps horizon.PlanSet
	err = c.phase(ctx, "Orchestrate", func(ctx context.Context) (err error) {
		ps, err = c.orch.Plan(in)
		return err
	})
	if err != nil {
		return dinnerplanner.PlanResult{}, err
	}

	err = c.phase(ctx, "Persist", func(ctx context.Context) error {
		if err := c.plans.Save(ctx, ps); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
		if !supersede {
			return nil
		}
		active.Status = horizon.StatusSuperseded
		if err := c.plans.Save(ctx, active); err != nil {
			return fmt.Errorf("failed to supersede plan %s: %w", active.ID, err)
		}
		runLog.Superseded = active.ID.String()
		return nil
	})
	if err != nil {
		return dinnerplanner.PlanResult{}, err
	}

	return c.finish(ctx, ps, false, runLog), nil
}

func (c *Coordinator) finish(ctx context.Context, ps horizon.PlanSet, idempotent bool, runLog *dinnerplanner.PlanLog) dinnerplanner.PlanResult {
	runLog.PlanSetID = ps.ID.String()
	runLog.Idempotent = idempotent
	runLog.Days = dayLogs(ps)
	runLog.Decisions = ps.Decisions
	for _, d := range ps.Days {
		runLog.Traces = append(runLog.Traces, d.Trace)
	}

	return dinnerplanner.PlanResult{
		PlanSet:    ps,
		Idempotent: idempotent,
		Narration:  c.narrate(ctx, ps),
	}
}

// narrate never fails; the template stands in for a failed narrator.
func (c *Coordinator) narrate(ctx context.Context, ps horizon.PlanSet) string {
	var text string
	_ = c.phase(ctx, "Narrate", func(ctx context.Context) error {
		var err error
		if text, err = c.narrator.Narrate(ctx, ps); err != nil || text == "" {
			slog.Warn("COORDINATOR: Narration failed, using template", "error", err)
			text, _ = TemplateNarrator{}.Narrate(ctx, ps)
		}
		return nil
	})
	return text
}

func (c *Coordinator) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "Coordinator."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.SetStatus(codes.Error, name+" failed")
		span.SetAttributes(attribute.String("error.kind", planner.KindOf(err)))
		span.RecordError(err)
		return err
	}
	return nil
}

func dayLogs(ps horizon.PlanSet) []dinnerplanner.DayLog {
	outcomes := make(map[string]stability.Outcome, len(ps.Decisions))
	for _, d := range ps.Decisions {
		outcomes[d.Date.String()] = d.Outcome
	}
	out := make([]dinnerplanner.DayLog, 0, len(ps.Days))
	for _, d := range ps.Days {
		dl := dinnerplanner.DayLog{
			Date:       d.Date.String(),
			RecipeSlug: d.RecipeSlug,
			Score:      d.Score.Final,
			Stability:  string(outcomes[d.Date.String()]),
		}
		if d.Trace.TieBreaker != nil {
			dl.TieBreaker = *d.Trace.TieBreaker
		}
		out = append(out, dl)
	}
	return out
}
