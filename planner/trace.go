package planner

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"dinnerplanner/allocate"
	"dinnerplanner/kitchen"
	"dinnerplanner/scoring"
	"dinnerplanner/timewindow"
	"dinnerplanner/variety"
)

// Rejection reason categories. Detail follows a colon where present.
const (
	ReasonExcluded         = "excluded"
	ReasonMissingEquipment = "missing_equipment"
	ReasonInsufficientTime = "insufficient_time"
)

const (
	statusEligible = "eligible"
	statusRejected = "rejected"
)

// LotSnapshot is one usable lot as the planner saw it before allocation.
type LotSnapshot struct {
	LotID        string             `json:"lot_id"`
	Name         string             `json:"name"`
	Quantity     *decimal.Decimal   `json:"quantity"`
	Confidence   kitchen.Confidence `json:"quantity_confidence"`
	Unit         string             `json:"unit"`
	ExpiresOn    *kitchen.Date      `json:"expiration_date"`
	DaysToExpiry *int               `json:"days_to_expiry"`
	Urgency      int                `json:"urgency"`
}

// Candidate is either an EligibleRecipe or a RejectedRecipe.
type Candidate interface {
	isCandidate()
	RecipeSlug() string
}

// EligibleRecipe passed every hard constraint and was scored.
type EligibleRecipe struct {
	Slug         string                `json:"slug"`
	Name         string                `json:"name"`
	TotalMinutes int                   `json:"total_minutes"`
	Allocations  []allocate.Allocation `json:"allocations"`
	Missing      []allocate.Missing    `json:"missing"`
	Score        scoring.Breakdown     `json:"score"`
	Variety      []variety.Reason      `json:"variety_reasons"`
}

// RejectedRecipe failed a hard constraint and was never scored.
type RejectedRecipe struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	TotalMinutes int    `json:"total_minutes"`
	Reason       string `json:"reason"`
}

func (EligibleRecipe) isCandidate() {}
func (RejectedRecipe) isCandidate() {}

func (c EligibleRecipe) RecipeSlug() string { return c.Slug }
func (c RejectedRecipe) RecipeSlug() string { return c.Slug }

func (c EligibleRecipe) MarshalJSON() ([]byte, error) {
	type alias EligibleRecipe
	return json.Marshal(struct {
		Status string `json:"status"`
		alias
	}{statusEligible, alias(c)})
}

func (c RejectedRecipe) MarshalJSON() ([]byte, error) {
	type alias RejectedRecipe
	return json.Marshal(struct {
		Status string `json:"status"`
		alias
	}{statusRejected, alias(c)})
}

func (c EligibleRecipe) rankable() scoring.Rankable {
	return scoring.Rankable{
		Slug:         c.Slug,
		Final:        c.Score.Final,
		Waste:        c.Score.Waste,
		MissingCount: len(c.Missing),
		TotalMinutes: c.TotalMinutes,
	}
}

// Trace explains one day's decision. Encoding the same trace always yields
// the same bytes.
type Trace struct {
	Date       kitchen.Date        `json:"date"`
	Inventory  []LotSnapshot       `json:"inventory"`
	Window     timewindow.Interval `json:"window"`
	Weights    scoring.Weights     `json:"weights"`
	Expiring   []string            `json:"expiring"`
	Excluded   []string            `json:"excluded"`
	Preferred  string              `json:"preferred,omitempty"`
	Candidates []Candidate         `json:"candidates"`
	Winner     string              `json:"winner"`
	TieBreaker *string             `json:"tie_breaker"`
	Notes      []string            `json:"notes"`
}

// Eligible returns the scored candidates in rank order.
func (t Trace) Eligible() []EligibleRecipe {
	var out []EligibleRecipe
	for _, c := range t.Candidates {
		if e, ok := c.(EligibleRecipe); ok {
			out = append(out, e)
		}
	}
	return out
}

// Rejected returns the rejected candidates in slug order.
func (t Trace) Rejected() []RejectedRecipe {
	var out []RejectedRecipe
	for _, c := range t.Candidates {
		if r, ok := c.(RejectedRecipe); ok {
			out = append(out, r)
		}
	}
	return out
}

func (t *Trace) UnmarshalJSON(b []byte) error {
	type alias Trace
	var raw struct {
		alias
		Candidates []json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Trace(raw.alias)
	t.Candidates = make([]Candidate, 0, len(raw.Candidates))
	for _, msg := range raw.Candidates {
		var tag struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(msg, &tag); err != nil {
			return err
		}
		switch tag.Status {
		case statusEligible:
			var c EligibleRecipe
			if err := json.Unmarshal(msg, &c); err != nil {
				return err
			}
			t.Candidates = append(t.Candidates, c)
		case statusRejected:
			var c RejectedRecipe
			if err := json.Unmarshal(msg, &c); err != nil {
				return err
			}
			t.Candidates = append(t.Candidates, c)
		default:
			return fmt.Errorf("unknown candidate status %q", tag.Status)
		}
	}
	return nil
}
