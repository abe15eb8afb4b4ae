// Package horizon plans dinners across several days. Each day is planned
// against a shadow copy of the inventory that already reflects the earlier
// days, no recipe repeats within one run, and days that already have a
// proposed recipe only change when the new winner clears the stability band.
package horizon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
	"dinnerplanner/scoring"
	"dinnerplanner/shadow"
	"dinnerplanner/stability"
	"dinnerplanner/variety"
)

// Per-date intent overrides.
const (
	OverrideSkip   = "skip"
	OverridePrefer = "prefer:"
)

const DefaultBandPct = 10

type Status string

const (
	StatusProposed   Status = "proposed"
	StatusSuperseded Status = "superseded"
	StatusCommitted  Status = "committed"
)

// Terminal reports whether a plan can no longer be reused or banded against.
func (s Status) Terminal() bool { return s != StatusProposed }

var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dinnerplanner/planset"))

// PlanSet is one horizon run.
type PlanSet struct {
	ID          uuid.UUID            `json:"id"`
	StableKey   string               `json:"stable_key"`
	HouseholdID string               `json:"household_id"`
	Status      Status               `json:"status"`
	Horizon     Spec                 `json:"horizon"`
	Dates       []kitchen.Date       `json:"dates"`
	Days        []planner.Day        `json:"days"`
	Decisions   []stability.Decision `json:"stability_decisions"`
	Grocery     []GroceryItem        `json:"grocery"`
	Notes       []string             `json:"notes"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Existing returns the chosen recipe and score per date, for banding a later run.
func (ps PlanSet) Existing() map[string]stability.Existing {
	out := make(map[string]stability.Existing, len(ps.Days))
	for _, d := range ps.Days {
		out[d.Date.String()] = stability.Existing{Slug: d.RecipeSlug, Score: d.Score.Final}
	}
	return out
}

// Input is one consistent snapshot of everything a horizon run reads.
type Input struct {
	Household kitchen.Household
	Now       time.Time
	Horizon   Spec
	Recipes   []kitchen.Recipe
	Lots      []kitchen.Lot
	Blocks    []kitchen.CalendarBlock
	History   []kitchen.ConsumptionRecord
	Exclude   []string
	// Overrides maps a date (YYYY-MM-DD) to OverrideSkip or OverridePrefer+slug.
	Overrides map[string]string
	// Existing is the prior proposed plan's choice per date.
	Existing map[string]stability.Existing
}

type Options struct {
	MaxDays int
	BandPct float64
}

type Orchestrator struct {
	planner *planner.Planner
	variety *variety.Engine
	opts    Options
}

func NewOrchestrator(p *planner.Planner, engine *variety.Engine, opts Options) *Orchestrator {
	if opts.MaxDays <= 0 {
		opts.MaxDays = DefaultMaxDays
	}
	if opts.BandPct < 0 {
		opts.BandPct = 0
	}
	return &Orchestrator{planner: p, variety: engine, opts: opts}
}

// StableKey is the idempotency key for in under the orchestrator's options.
func (o *Orchestrator) StableKey(in Input) string {
	return stability.StableKey(stability.KeyInput{
		HouseholdID:     in.Household.ID,
		Horizon:         in.Horizon.Canonical(),
		Overrides:       in.Overrides,
		Options:         o.options(in),
		InventoryDigest: stability.InventoryDigest(in.Lots),
		CalendarDigest:  stability.CalendarDigest(in.Blocks),
	})
}

func (o *Orchestrator) options(in Input) map[string]string {
	w := o.planner.Weights()
	opts := map[string]string{
		"band_pct":                 fmtFloat(o.opts.BandPct),
		"max_days":                 strconv.Itoa(o.opts.MaxDays),
		"waste_weight":             fmtFloat(w.Waste),
		"grocery_penalty_per_item": fmtFloat(w.GroceryPerItem),
		"time_penalty_factor":      fmtFloat(w.TimeFactor),
	}
	if ex := uniqueSorted(in.Exclude); len(ex) > 0 {
		opts["exclude"] = strings.Join(ex, " ")
	}
	return opts
}

func uniqueSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, s := range items {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Dates resolves the horizon in in against the orchestrator's day cap.
func (o *Orchestrator) Dates(in Input) ([]kitchen.Date, bool, error) {
	return in.Horizon.Dates(in.Household, in.Now, o.opts.MaxDays)
}

// CoversDates reports whether ps was planned for exactly dates.
func (ps PlanSet) CoversDates(dates []kitchen.Date) bool {
	if len(ps.Dates) != len(dates) {
		return false
	}
	for i := range dates {
		if !ps.Dates[i].Equal(dates[i]) {
			return false
		}
	}
	return true
}

// Plan runs the whole horizon. Any day that cannot be planned fails the run.
func (o *Orchestrator) Plan(in Input) (PlanSet, error) {
	if err := in.Household.Validate(); err != nil {
		return PlanSet{}, fmt.Errorf("%w: %v", planner.ErrInvalidInput, err)
	}
	dates, truncated, err := o.Dates(in)
	if err != nil {
		return PlanSet{}, err
	}

	key := o.StableKey(in)
	ps := PlanSet{
		ID:          uuid.NewSHA1(planNamespace, []byte(key)),
		StableKey:   key,
		HouseholdID: in.Household.ID,
		Status:      StatusProposed,
		Horizon:     in.Horizon,
		Dates:       dates,
		Days:        []planner.Day{},
		Decisions:   []stability.Decision{},
		Notes:       []string{},
		CreatedAt:   in.Now,
	}
	if truncated {
		ps.Notes = append(ps.Notes, fmt.Sprintf("horizon truncated to %d days", o.opts.MaxDays))
	}

	byslug := make(map[string]kitchen.Recipe, len(in.Recipes))
	for _, r := range in.Recipes {
		byslug[r.Slug] = r
	}

	inv := shadow.New(in.Lots, dates[0])
	history := append([]kitchen.ConsumptionRecord(nil), in.History...)
	var chosen []string

	for _, date := range dates {
		override := in.Overrides[date.String()]
		if override == OverrideSkip {
			ps.Notes = append(ps.Notes, fmt.Sprintf("%s skipped by override", date))
			continue
		}

		inv.AdvanceTo(date)
		exclude := append(append([]string(nil), in.Exclude...), chosen...)
		req := planner.Request{
			Date:      date,
			Now:       in.Now,
			Household: in.Household,
			Recipes:   in.Recipes,
			Lots:      inv.Lots(),
			Blocks:    in.Blocks,
			Exclude:   exclude,
			Expiring:  inv.Expiring(),
			Profile:   o.variety.BuildProfile(history, date),
		}
		if slug, ok := strings.CutPrefix(override, OverridePrefer); ok {
			req.Preferred = slug
		}

		day, err := o.planner.PlanDay(req)
		if err != nil {
			return PlanSet{}, fmt.Errorf("plan %s: %w", date, err)
		}

		if old, ok := in.Existing[date.String()]; ok && req.Preferred == "" {
			dec := stability.Decide(date, old, day.RecipeSlug, day.Score.Final, o.opts.BandPct)
			if dec.NeedsRerun() {
				day, dec, err = o.keepOld(req, day, dec)
				if err != nil {
					return PlanSet{}, fmt.Errorf("plan %s: %w", date, err)
				}
			}
			ps.Decisions = append(ps.Decisions, dec)
			day.Trace.Notes = append(day.Trace.Notes, fmt.Sprintf("stability %s: old %s %v, new %s %v, threshold %v",
				dec.Outcome, dec.OldSlug, dec.OldScore, dec.NewSlug, dec.NewScore, dec.Threshold))
		}

		for _, id := range inv.Apply(day.Consumption) {
			day.Trace.Notes = append(day.Trace.Notes, fmt.Sprintf("shadow lot %s clamped at zero", id))
		}

		chosen = append(chosen, day.RecipeSlug)
		r := byslug[day.RecipeSlug]
		history = append(history, kitchen.ConsumptionRecord{
			Date:        date,
			RecipeSlug:  r.Slug,
			Ingredients: r.IngredientNames(),
			Tags:        r.Tags,
		})
		ps.Days = append(ps.Days, day)
	}

	ps.Grocery = Consolidate(ps.Days)
	return ps, nil
}

// keepOld re-plans the day with the old recipe preferred. The re-run's
// allocation replaces the original one since the shadow inventory may have
// moved since the old plan was made.
func (o *Orchestrator) keepOld(req planner.Request, day planner.Day, dec stability.Decision) (planner.Day, stability.Decision, error) {
	for _, slug := range req.Exclude {
		if slug == dec.OldSlug {
			return day, dec.OldExcluded(), nil
		}
	}
	req.Preferred = dec.OldSlug
	rerun, err := o.planner.PlanDay(req)
	if err != nil {
		return planner.Day{}, dec, err
	}
	if rerun.RecipeSlug != dec.OldSlug {
		return day, dec.OldExcluded(), nil
	}
	return rerun, dec, nil
}

// Weights echoes the scoring weights the orchestrator plans with.
func (o *Orchestrator) Weights() scoring.Weights { return o.planner.Weights() }
