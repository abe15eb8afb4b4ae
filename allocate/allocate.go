// Package allocate decides which inventory lots satisfy a recipe's ingredient
// requirements. Lots with unknown quantity cover a requirement outright;
// known-quantity lots are consumed FIFO with expiry urgency first.
package allocate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"dinnerplanner/kitchen"
)

var ErrNegativeQuantity = errors.New("negative lot quantity")

// Allocation is one lot's contribution to one requirement. Unknown allocations
// carry no quantity and never decrement the lot.
type Allocation struct {
	LotID      string           `json:"lot_id"`
	Ingredient string           `json:"ingredient"`
	Unit       string           `json:"unit"`
	Consumed   *decimal.Decimal `json:"consumed_quantity"`
	Unknown    bool             `json:"unknown_quantity,omitempty"`
}

// Missing is the unmet remainder of a requirement.
type Missing struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

type Result struct {
	Allocations []Allocation `json:"allocations"`
	Missing     []Missing    `json:"missing"`
}

// Allocate satisfies reqs from a copy of arena and returns the decremented copy.
// Optional requirements are skipped.
func Allocate(arena Arena, reqs []kitchen.Requirement) (Arena, Result, error) {
	work := arena.Clone()
	res := Result{Allocations: []Allocation{}, Missing: []Missing{}}

	for _, req := range reqs {
		if req.Optional {
			continue
		}

		if lot, ok := firstUnknown(work, req); ok {
			res.Allocations = append(res.Allocations, Allocation{
				LotID:      lot.ID,
				Ingredient: req.Name,
				Unit:       req.Unit,
				Unknown:    true,
			})
			continue
		}

		remaining := req.Quantity
		for _, lot := range knownCandidates(work, req) {
			if !remaining.IsPositive() {
				break
			}
			avail, _ := lot.Amount.Quantity()
			take := decimal.Min(avail, remaining)
			left := avail.Sub(take)
			if left.IsNegative() {
				return Arena{}, Result{}, fmt.Errorf("%w: lot %s would hold %s", ErrNegativeQuantity, lot.ID, left)
			}

			lot.Amount = lot.Amount.WithQuantity(left)
			work.set(lot)
			remaining = remaining.Sub(take)

			consumed := take
			res.Allocations = append(res.Allocations, Allocation{
				LotID:      lot.ID,
				Ingredient: req.Name,
				Unit:       req.Unit,
				Consumed:   &consumed,
			})
		}

		if remaining.IsPositive() {
			res.Missing = append(res.Missing, Missing{Name: req.Name, Quantity: remaining, Unit: req.Unit})
		}
	}

	return work, res, nil
}

func matches(lot kitchen.Lot, req kitchen.Requirement) bool {
	return lot.Name == req.Name && lot.Unit == req.Unit
}

func firstUnknown(a Arena, req kitchen.Requirement) (kitchen.Lot, bool) {
	var found []kitchen.Lot
	for _, lot := range a.Lots() {
		if matches(lot, req) && lot.Amount.IsUnknown() {
			found = append(found, lot)
		}
	}
	if len(found) == 0 {
		return kitchen.Lot{}, false
	}
	SortLots(found)
	return found[0], true
}

func knownCandidates(a Arena, req kitchen.Requirement) []kitchen.Lot {
	var out []kitchen.Lot
	for _, lot := range a.Lots() {
		if !matches(lot, req) {
			continue
		}
		if q, ok := lot.Amount.Quantity(); ok && q.IsPositive() {
			out = append(out, lot)
		}
	}
	SortLots(out)
	return out
}

// SortLots orders lots for consumption: earliest expiry first (no expiry
// last), exact before estimate, earliest created, then id.
func SortLots(lots []kitchen.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ExpiresOn != nil && b.ExpiresOn == nil:
			return true
		case a.ExpiresOn == nil && b.ExpiresOn != nil:
			return false
		case a.ExpiresOn != nil && !a.ExpiresOn.Equal(*b.ExpiresOn):
			return a.ExpiresOn.Before(*b.ExpiresOn)
		}
		if ra, rb := confidenceRank(a), confidenceRank(b); ra != rb {
			return ra < rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func confidenceRank(l kitchen.Lot) int {
	switch l.Amount.Confidence() {
	case kitchen.Exact:
		return 0
	case kitchen.Estimate:
		return 1
	default:
		return 2
	}
}
