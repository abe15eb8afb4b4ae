// Package shadow projects inventory forward across a planning horizon without
// touching persisted state.
package shadow

import (
	"sort"

	"github.com/shopspring/decimal"

	"dinnerplanner/allocate"
	"dinnerplanner/kitchen"
)

// ExpiringWithinDays bounds the expiring set: lots with 0 <= expires_in_days <= 2.
const ExpiringWithinDays = 2

// Item is a disposable copy of a lot annotated against the reference date.
type Item struct {
	Lot           kitchen.Lot `json:"lot"`
	ExpiresInDays *int        `json:"expires_in_days"`
}

// Inventory is the shadow copy. It is owned by one horizon computation.
type Inventory struct {
	ref   kitchen.Date
	order []string
	items map[string]*Item
}

func New(lots []kitchen.Lot, ref kitchen.Date) *Inventory {
	inv := &Inventory{
		order: make([]string, 0, len(lots)),
		items: make(map[string]*Item, len(lots)),
	}
	for _, l := range lots {
		if _, dup := inv.items[l.ID]; dup {
			continue
		}
		inv.order = append(inv.order, l.ID)
		inv.items[l.ID] = &Item{Lot: l}
	}
	inv.AdvanceTo(ref)
	return inv
}

// Reference returns the date expires_in_days is measured from.
func (s *Inventory) Reference() kitchen.Date { return s.ref }

// AdvanceTo re-annotates every item against a new reference date.
func (s *Inventory) AdvanceTo(ref kitchen.Date) {
	s.ref = ref
	for _, it := range s.items {
		it.ExpiresInDays = it.Lot.DaysToExpiry(ref)
	}
}

// Apply decrements the lots named by allocs, floored at zero. Unknown-quantity
// allocations are no-ops. It returns the ids of lots that hit the floor with
// demand left over.
func (s *Inventory) Apply(allocs []allocate.Allocation) []string {
	var clamped []string
	for _, a := range allocs {
		if a.Unknown || a.Consumed == nil {
			continue
		}
		it, ok := s.items[a.LotID]
		if !ok {
			continue
		}
		q, ok := it.Lot.Amount.Quantity()
		if !ok {
			continue
		}
		left := q.Sub(*a.Consumed)
		if left.IsNegative() {
			clamped = append(clamped, a.LotID)
			left = decimal.Zero
		}
		it.Lot.Amount = it.Lot.Amount.WithQuantity(left)
	}
	return clamped
}

// Items returns the annotated items in original lot order.
func (s *Inventory) Items() []Item {
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// Lots returns the usable lots for the reference date: not expired, and either
// unknown quantity or a positive known quantity.
func (s *Inventory) Lots() []kitchen.Lot {
	var out []kitchen.Lot
	for _, id := range s.order {
		it := s.items[id]
		if it.ExpiresInDays != nil && *it.ExpiresInDays < 0 {
			continue
		}
		if q, ok := it.Lot.Amount.Quantity(); ok && !q.IsPositive() {
			continue
		}
		out = append(out, it.Lot)
	}
	return out
}

// Expiring returns the set of ingredient names with a usable lot expiring
// within ExpiringWithinDays of the reference date.
func (s *Inventory) Expiring() map[string]bool {
	out := make(map[string]bool)
	for _, l := range s.Lots() {
		d := l.DaysToExpiry(s.ref)
		if d != nil && *d >= 0 && *d <= ExpiringWithinDays {
			out[l.Name] = true
		}
	}
	return out
}

// ExpiringNames is Expiring as a sorted slice.
func (s *Inventory) ExpiringNames() []string {
	return SortedNames(s.Expiring())
}

func SortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
