// Package scoring turns allocations into a candidate score and ranks candidates.
package scoring

import (
	"math"

	"dinnerplanner/allocate"
	"dinnerplanner/kitchen"
)

// Weights are the fixed scoring constants. They are passed by value into every
// scoring call and echoed in each reasoning trace.
type Weights struct {
	Waste          float64 `json:"waste_weight"`
	GroceryPerItem float64 `json:"grocery_penalty_per_item"`
	TimeFactor     float64 `json:"time_penalty_factor"`
}

func DefaultWeights() Weights {
	return Weights{Waste: 1, GroceryPerItem: 10, TimeFactor: 0.2}
}

// Urgency maps days-to-expiry onto the urgency step function. A nil value
// means the lot never expires.
func Urgency(daysToExpiry *int) int {
	if daysToExpiry == nil {
		return 0
	}
	switch d := *daysToExpiry; {
	case d < 0:
		return -1
	case d <= 1:
		return 5
	case d <= 3:
		return 3
	case d <= 7:
		return 1
	default:
		return 0
	}
}

// Breakdown is a candidate's score. Final = Waste - Grocery - Time - Variety.
type Breakdown struct {
	Waste          float64 `json:"waste"`
	GroceryPenalty float64 `json:"grocery_penalty"`
	TimePenalty    float64 `json:"time_penalty"`
	VarietyPenalty float64 `json:"variety_penalty"`
	Final          float64 `json:"final"`
}

// WasteScore rewards consuming soon-to-expire lots. snapshot holds the lots as
// they were before allocation; unknown-quantity allocations contribute nothing.
func WasteScore(w Weights, snapshot allocate.Arena, allocs []allocate.Allocation, ref kitchen.Date) float64 {
	var total float64
	for _, a := range allocs {
		if a.Unknown || a.Consumed == nil {
			continue
		}
		lot, ok := snapshot.Lot(a.LotID)
		if !ok {
			continue
		}
		original, ok := lot.Amount.Quantity()
		if !ok || !original.IsPositive() {
			continue
		}
		ratio := a.Consumed.Div(original).InexactFloat64()
		total += float64(Urgency(lot.DaysToExpiry(ref))) * ratio * w.Waste
	}
	return Round(total)
}

func GroceryPenalty(w Weights, missingCount int) float64 {
	return Round(float64(missingCount) * w.GroceryPerItem)
}

func TimePenalty(w Weights, totalMinutes int) float64 {
	return Round(float64(totalMinutes) * w.TimeFactor)
}

// Score assembles the breakdown for one candidate.
func Score(w Weights, snapshot allocate.Arena, res allocate.Result, totalMinutes int, variety float64, ref kitchen.Date) Breakdown {
	b := Breakdown{
		Waste:          WasteScore(w, snapshot, res.Allocations, ref),
		GroceryPenalty: GroceryPenalty(w, len(res.Missing)),
		TimePenalty:    TimePenalty(w, totalMinutes),
		VarietyPenalty: Round(variety),
	}
	b.Final = Round(b.Waste - b.GroceryPenalty - b.TimePenalty - b.VarietyPenalty)
	return b
}

// Round fixes scores to four decimal places so traces are stable and readable.
func Round(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}
