// Package planner chooses one dinner recipe for one day. It composes the time
// window resolver, the equipment gate, the allocator, the scorer and the
// variety engine, and records every step in a Trace.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"dinnerplanner/allocate"
	"dinnerplanner/kitchen"
	"dinnerplanner/scoring"
	"dinnerplanner/shadow"
	"dinnerplanner/timewindow"
	"dinnerplanner/variety"
)

// Request is everything one day's decision depends on. Lots is the usable
// inventory as of Date; expired lots are dropped before planning.
type Request struct {
	Date      kitchen.Date
	Now       time.Time
	Household kitchen.Household
	Recipes   []kitchen.Recipe
	Lots      []kitchen.Lot
	Blocks    []kitchen.CalendarBlock
	Exclude   []string
	Preferred string
	// Expiring overrides the expiring-ingredient set derived from Lots.
	Expiring map[string]bool
	Profile  variety.Profile
}

// Day is one planned dinner.
type Day struct {
	Date        kitchen.Date          `json:"date"`
	RecipeSlug  string                `json:"recipe_slug"`
	RecipeName  string                `json:"recipe_name"`
	Window      timewindow.Interval   `json:"window"`
	Consumption []allocate.Allocation `json:"consumption"`
	Missing     []allocate.Missing    `json:"missing"`
	Score       scoring.Breakdown     `json:"score"`
	Trace       Trace                 `json:"trace"`
}

type Planner struct {
	weights scoring.Weights
	variety *variety.Engine
}

func New(w scoring.Weights, engine *variety.Engine) *Planner {
	if engine == nil {
		engine = variety.NewEngine(variety.DefaultConfig())
	}
	return &Planner{weights: w, variety: engine}
}

func (p *Planner) Weights() scoring.Weights { return p.weights }

// PlanDay picks the winning recipe for req.Date. When req.Preferred names an
// eligible recipe it wins regardless of rank.
func (p *Planner) PlanDay(req Request) (Day, error) {
	if err := req.Household.Validate(); err != nil {
		return Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Date.IsZero() {
		return Day{}, fmt.Errorf("%w: planning date is required", ErrInvalidInput)
	}
	recipes, err := sortedRecipes(req.Recipes)
	if err != nil {
		return Day{}, err
	}

	trace := Trace{
		Date:       req.Date,
		Weights:    p.weights,
		Excluded:   sortedSet(req.Exclude),
		Preferred:  req.Preferred,
		Candidates: []Candidate{},
		Notes:      []string{},
	}

	lots := make([]kitchen.Lot, 0, len(req.Lots))
	for _, l := range req.Lots {
		if l.Expired(req.Date) {
			trace.Notes = append(trace.Notes, fmt.Sprintf("lot %s expired, excluded from snapshot", l.ID))
			continue
		}
		lots = append(lots, l)
	}
	arena, err := allocate.NewArena(lots)
	if err != nil {
		if errors.Is(err, allocate.ErrNegativeQuantity) {
			return Day{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		return Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	trace.Inventory = InventorySnapshot(lots, req.Date)

	expiring := req.Expiring
	if expiring == nil {
		expiring = shadow.New(lots, req.Date).Expiring()
	}
	trace.Expiring = shadow.SortedNames(expiring)

	bounds, err := timewindow.DayBounds(req.Household, req.Date)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	window, err := timewindow.Resolve(bounds, req.Now, req.Blocks)
	if err != nil {
		return Day{}, fmt.Errorf("%s: %w", req.Date, err)
	}
	trace.Window = window

	excluded := make(map[string]bool, len(req.Exclude))
	for _, slug := range req.Exclude {
		excluded[slug] = true
	}

	var eligible []EligibleRecipe
	var rejected []RejectedRecipe
	for _, r := range recipes {
		reject := func(reason string) {
			rejected = append(rejected, RejectedRecipe{Slug: r.Slug, Name: r.Name, TotalMinutes: r.TotalMinutes(), Reason: reason})
		}
		if excluded[r.Slug] {
			reject(ReasonExcluded)
			continue
		}
		if missing := Gate(r.Equipment, req.Household.Equipment); len(missing) > 0 {
			reject(missingEquipmentReason(missing))
			continue
		}
		if r.TotalMinutes() > window.Minutes {
			reject(fmt.Sprintf("%s:%d>%d", ReasonInsufficientTime, r.TotalMinutes(), window.Minutes))
			continue
		}

		c, err := p.score(arena, r, req, expiring)
		if err != nil {
			return Day{}, err
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		return Day{}, &NoEligibleError{Date: req.Date, Top: topRejections(rejected, 3)}
	}

	eligible = rank(eligible)
	if len(eligible) > 1 {
		first, second := eligible[0].rankable(), eligible[1].rankable()
		trace.TieBreaker = scoring.TieBreaker(&first, &second)
	}
	if req.Preferred != "" {
		if i := indexOf(eligible, req.Preferred); i > 0 {
			pref := eligible[i]
			eligible = append(eligible[:i], eligible[i+1:]...)
			eligible = append([]EligibleRecipe{pref}, eligible...)
			trace.TieBreaker = nil
			trace.Notes = append(trace.Notes, fmt.Sprintf("preferred recipe %s kept over higher-ranked candidates", pref.Slug))
		} else if i < 0 {
			trace.Notes = append(trace.Notes, fmt.Sprintf("preferred recipe %s not eligible", req.Preferred))
		}
	}

	for _, c := range eligible {
		trace.Candidates = append(trace.Candidates, c)
	}
	for _, c := range rejected {
		trace.Candidates = append(trace.Candidates, c)
	}

	winner := eligible[0]
	trace.Winner = winner.Slug

	return Day{
		Date:        req.Date,
		RecipeSlug:  winner.Slug,
		RecipeName:  winner.Name,
		Window:      window,
		Consumption: winner.Allocations,
		Missing:     winner.Missing,
		Score:       winner.Score,
		Trace:       trace,
	}, nil
}

func (p *Planner) score(arena allocate.Arena, r kitchen.Recipe, req Request, expiring map[string]bool) (EligibleRecipe, error) {
	_, res, err := allocate.Allocate(arena, r.RequiredIngredients())
	if err != nil {
		return EligibleRecipe{}, fmt.Errorf("%w: recipe %s: %v", ErrInvariantViolation, r.Slug, err)
	}
	v := p.variety.Penalty(req.Profile, r.IngredientNames(), r.Tags, expiring)
	return EligibleRecipe{
		Slug:         r.Slug,
		Name:         r.Name,
		TotalMinutes: r.TotalMinutes(),
		Allocations:  res.Allocations,
		Missing:      res.Missing,
		Score:        scoring.Score(p.weights, arena, res, r.TotalMinutes(), v.Total, req.Date),
		Variety:      v.Reasons,
	}, nil
}

func rank(cands []EligibleRecipe) []EligibleRecipe {
	rs := make([]scoring.Rankable, len(cands))
	for i, c := range cands {
		rs[i] = c.rankable()
	}
	out := make([]EligibleRecipe, 0, len(cands))
	for _, i := range scoring.Rank(rs) {
		out = append(out, cands[i])
	}
	return out
}

func indexOf(cands []EligibleRecipe, slug string) int {
	for i, c := range cands {
		if c.Slug == slug {
			return i
		}
	}
	return -1
}

func sortedRecipes(recipes []kitchen.Recipe) ([]kitchen.Recipe, error) {
	out := make([]kitchen.Recipe, len(recipes))
	copy(out, recipes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	for i, r := range out {
		if r.Slug == "" {
			return nil, fmt.Errorf("%w: recipe without slug", ErrInvalidInput)
		}
		if i > 0 && out[i-1].Slug == r.Slug {
			return nil, fmt.Errorf("%w: duplicate recipe slug %s", ErrInvalidInput, r.Slug)
		}
	}
	return out, nil
}

func sortedSet(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := []string{}
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

// InventorySnapshot annotates lots against date, in allocation order.
func InventorySnapshot(lots []kitchen.Lot, date kitchen.Date) []LotSnapshot {
	ordered := make([]kitchen.Lot, len(lots))
	copy(ordered, lots)
	allocate.SortLots(ordered)

	out := make([]LotSnapshot, 0, len(ordered))
	for _, l := range ordered {
		s := LotSnapshot{
			LotID:      l.ID,
			Name:       l.Name,
			Confidence: l.Amount.Confidence(),
			Unit:       l.Unit,
			ExpiresOn:  l.ExpiresOn,
		}
		if q, ok := l.Amount.Quantity(); ok {
			s.Quantity = &q
		}
		s.DaysToExpiry = l.DaysToExpiry(date)
		s.Urgency = scoring.Urgency(s.DaysToExpiry)
		out = append(out, s)
	}
	return out
}
