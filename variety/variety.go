// Package variety scores candidates down for repeating recently eaten
// ingredients or cuisines. Ingredients that are about to expire are exempt.
package variety

import (
	"fmt"

	"dinnerplanner/kitchen"
)

const (
	DefaultLookbackDays         = 7
	DefaultCuisineRepeatPenalty = 8
)

// Config parameterizes an Engine.
type Config struct {
	LookbackDays         int
	CuisineRepeatPenalty float64
	Rules                []Rule
}

func DefaultConfig() Config {
	return Config{
		LookbackDays:         DefaultLookbackDays,
		CuisineRepeatPenalty: DefaultCuisineRepeatPenalty,
		Rules:                DefaultRules,
	}
}

// Usage is how recently and how often something was consumed.
type Usage struct {
	Last  kitchen.Date `json:"last"`
	Count int          `json:"count"`
	// PriorDay is set when any occurrence falls exactly one day before the
	// profile date, even if a later one exists.
	PriorDay bool `json:"prior_day,omitempty"`
}

// Profile is the recency profile for one planning date.
type Profile struct {
	Date        kitchen.Date     `json:"date"`
	Ingredients map[string]Usage `json:"ingredients"`
	Cuisines    map[string]Usage `json:"cuisines"`
}

// Reason explains one applied penalty.
type Reason struct {
	Ingredient string  `json:"ingredient,omitempty"`
	Cuisine    string  `json:"cuisine,omitempty"`
	Category   string  `json:"category,omitempty"`
	DaysSince  int     `json:"days_since"`
	Points     float64 `json:"points"`
	Message    string  `json:"message"`
}

// Result is the summed penalty and its reasons, in ingredient then cuisine order.
type Result struct {
	Total   float64  `json:"total"`
	Reasons []Reason `json:"reasons"`
}

type Engine struct {
	cfg   Config
	table Table
}

func NewEngine(cfg Config) *Engine {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules
	}
	return &Engine{cfg: cfg, table: NewTable(cfg.Rules)}
}

// BuildProfile folds the records dated within the lookback window before date
// (inclusive of date itself) into a profile. Future records are ignored.
func (e *Engine) BuildProfile(records []kitchen.ConsumptionRecord, date kitchen.Date) Profile {
	p := Profile{
		Date:        date,
		Ingredients: make(map[string]Usage),
		Cuisines:    make(map[string]Usage),
	}
	for _, rec := range records {
		since := rec.Date.DaysUntil(date)
		if since < 0 || since > e.cfg.LookbackDays {
			continue
		}
		seen := make(map[string]bool)
		for _, ing := range rec.Ingredients {
			ing = kitchen.CanonicalName(ing)
			if seen[ing] {
				continue
			}
			seen[ing] = true
			p.Ingredients[ing] = bump(p.Ingredients[ing], rec.Date, since)
		}
		for _, c := range kitchen.CuisineTags(rec.Tags) {
			p.Cuisines[c] = bump(p.Cuisines[c], rec.Date, since)
		}
	}
	return p
}

func bump(u Usage, d kitchen.Date, since int) Usage {
	u.Count++
	if since == 1 {
		u.PriorDay = true
	}
	if u.Last.IsZero() || d.After(u.Last) {
		u.Last = d
	}
	return u
}

// Penalty scores one candidate's ingredients and tags against the profile.
// Ingredients in expiring are never penalized.
func (e *Engine) Penalty(p Profile, ingredients, tags []string, expiring map[string]bool) Result {
	res := Result{Reasons: []Reason{}}

	for _, ing := range ingredients {
		ing = kitchen.CanonicalName(ing)
		if expiring[ing] {
			continue
		}
		rule, ok := e.table.RuleFor(ing)
		if !ok {
			continue
		}
		u, ok := p.Ingredients[ing]
		if !ok {
			continue
		}
		since := u.Last.DaysUntil(p.Date)
		if since > rule.AvoidRepeatDays {
			continue
		}
		points := rule.PenaltyPerOccurrence * float64(u.Count)
		res.Total += points
		res.Reasons = append(res.Reasons, Reason{
			Ingredient: ing,
			Category:   rule.Category,
			DaysSince:  since,
			Points:     points,
			Message:    fmt.Sprintf("%s consumed %d days ago", ing, since),
		})
	}

	for _, c := range kitchen.CuisineTags(tags) {
		u, ok := p.Cuisines[c]
		if !ok || !u.PriorDay {
			continue
		}
		res.Total += e.cfg.CuisineRepeatPenalty
		res.Reasons = append(res.Reasons, Reason{
			Cuisine:   c,
			DaysSince: 1,
			Points:    e.cfg.CuisineRepeatPenalty,
			Message:   fmt.Sprintf("%s cuisine also served yesterday", c),
		})
	}

	return res
}
