package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dinnerplanner/kitchen"
	"dinnerplanner/timewindow"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoFeasibleTimeWindow = timewindow.ErrNoFeasibleWindow
	ErrNoEligibleRecipe     = errors.New("no eligible recipe")
	ErrInvariantViolation   = errors.New("invariant violation")
)

// Error kinds as reported to callers and metrics.
const (
	KindInvalidInput         = "invalid_input"
	KindNoFeasibleTimeWindow = "no_feasible_time_window"
	KindNoEligibleRecipe     = "no_eligible_recipe"
	KindInvariantViolation   = "invariant_violation"
	KindInternal             = "internal"
)

// KindOf maps err onto one of the error kinds. A nil error has no kind.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNoFeasibleTimeWindow):
		return KindNoFeasibleTimeWindow
	case errors.Is(err, ErrNoEligibleRecipe):
		return KindNoEligibleRecipe
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariantViolation
	default:
		return KindInternal
	}
}

// RejectionCount is how many recipes were rejected for one reason category.
type RejectionCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// NoEligibleError reports a day on which every recipe was rejected, with the
// most common rejection categories first.
type NoEligibleError struct {
	Date kitchen.Date     `json:"date"`
	Top  []RejectionCount `json:"top_reasons"`
}

func (e *NoEligibleError) Error() string {
	parts := make([]string, 0, len(e.Top))
	for _, rc := range e.Top {
		parts = append(parts, fmt.Sprintf("%s=%d", rc.Category, rc.Count))
	}
	return fmt.Sprintf("%s: %v (%s)", e.Date, ErrNoEligibleRecipe, strings.Join(parts, ", "))
}

func (e *NoEligibleError) Unwrap() error { return ErrNoEligibleRecipe }

// reasonCategory strips the detail after the first colon.
func reasonCategory(reason string) string {
	cat, _, _ := strings.Cut(reason, ":")
	return cat
}

func topRejections(rejected []RejectedRecipe, n int) []RejectionCount {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[reasonCategory(r.Reason)]++
	}
	out := make([]RejectionCount, 0, len(counts))
	for cat, c := range counts {
		out = append(out, RejectionCount{Category: cat, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
