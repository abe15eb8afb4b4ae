package horizon

import (
	"fmt"
	"time"

	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
	"dinnerplanner/stability"
	"dinnerplanner/timewindow"
)

type Mode string

const (
	NextMeal     Mode = "next_meal"
	NextNDinners Mode = "next_n_dinners"
	DateRange    Mode = "date_range"
)

const DefaultMaxDays = 14

// Spec is the caller's description of which dates to plan.
type Spec struct {
	Mode     Mode         `json:"mode"`
	NDinners int          `json:"n_dinners,omitempty"`
	Start    kitchen.Date `json:"start,omitzero"`
	End      kitchen.Date `json:"end,omitzero"`
}

// NextMealDate is today in the household's zone if dinner can still start
// before the latest bound, otherwise tomorrow.
func NextMealDate(h kitchen.Household, now time.Time) (kitchen.Date, error) {
	loc, err := h.Location()
	if err != nil {
		return kitchen.Date{}, fmt.Errorf("%w: %v", planner.ErrInvalidInput, err)
	}
	today := kitchen.DateOf(now.In(loc))
	if now.Add(timewindow.LeadTime).Before(today.At(h.DinnerLatest, loc)) {
		return today, nil
	}
	return today.AddDays(1), nil
}

// Dates expands the spec into chronological dates, capped at maxDays. The
// second return reports whether the cap cut the span short.
func (s Spec) Dates(h kitchen.Household, now time.Time, maxDays int) ([]kitchen.Date, bool, error) {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}

	var first kitchen.Date
	var n int
	switch s.Mode {
	case NextMeal, "":
		d, err := NextMealDate(h, now)
		if err != nil {
			return nil, false, err
		}
		first, n = d, 1
	case NextNDinners:
		if s.NDinners < 1 {
			return nil, false, fmt.Errorf("%w: n_dinners must be at least 1, got %d", planner.ErrInvalidInput, s.NDinners)
		}
		d, err := NextMealDate(h, now)
		if err != nil {
			return nil, false, err
		}
		first, n = d, s.NDinners
	case DateRange:
		if s.Start.IsZero() || s.End.IsZero() {
			return nil, false, fmt.Errorf("%w: date_range needs start and end", planner.ErrInvalidInput)
		}
		if s.End.Before(s.Start) {
			return nil, false, fmt.Errorf("%w: date_range end %s before start %s", planner.ErrInvalidInput, s.End, s.Start)
		}
		first, n = s.Start, s.Start.DaysUntil(s.End)+1
	default:
		return nil, false, fmt.Errorf("%w: unknown horizon mode %q", planner.ErrInvalidInput, s.Mode)
	}

	truncated := n > maxDays
	if truncated {
		n = maxDays
	}
	dates := make([]kitchen.Date, n)
	for i := range dates {
		dates[i] = first.AddDays(i)
	}
	return dates, truncated, nil
}

// Canonical is the form the stable key covers. Relative modes are keyed by
// their mode and count, not by the resolved dates.
func (s Spec) Canonical() stability.Horizon {
	mode := s.Mode
	if mode == "" {
		mode = NextMeal
	}
	h := stability.Horizon{Mode: string(mode)}
	switch mode {
	case NextNDinners:
		h.NDinners = s.NDinners
	case DateRange:
		h.Start = s.Start.String()
		h.End = s.End.String()
	}
	return h
}
