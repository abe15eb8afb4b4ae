package allocate

import (
	"fmt"

	"dinnerplanner/kitchen"
)

// Arena is a working copy of inventory lots indexed by id. Arenas are values:
// operations that change lots return a new Arena and leave the receiver intact.
type Arena struct {
	order []string
	lots  map[string]kitchen.Lot
}

// NewArena copies lots into a fresh arena, keeping their order. Duplicate ids
// and negative quantities are rejected.
func NewArena(lots []kitchen.Lot) (Arena, error) {
	a := Arena{
		order: make([]string, 0, len(lots)),
		lots:  make(map[string]kitchen.Lot, len(lots)),
	}
	for _, lot := range lots {
		if _, dup := a.lots[lot.ID]; dup {
			return Arena{}, fmt.Errorf("duplicate lot id %q", lot.ID)
		}
		if q, ok := lot.Amount.Quantity(); ok && q.IsNegative() {
			return Arena{}, fmt.Errorf("%w: lot %s has quantity %s", ErrNegativeQuantity, lot.ID, q)
		}
		a.order = append(a.order, lot.ID)
		a.lots[lot.ID] = lot
	}
	return a, nil
}

// Clone returns an independent copy.
func (a Arena) Clone() Arena {
	c := Arena{
		order: make([]string, len(a.order)),
		lots:  make(map[string]kitchen.Lot, len(a.lots)),
	}
	copy(c.order, a.order)
	for id, lot := range a.lots {
		c.lots[id] = lot
	}
	return c
}

func (a Arena) Lot(id string) (kitchen.Lot, bool) {
	lot, ok := a.lots[id]
	return lot, ok
}

// Lots returns the lots in arena order.
func (a Arena) Lots() []kitchen.Lot {
	out := make([]kitchen.Lot, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.lots[id])
	}
	return out
}

func (a Arena) Len() int { return len(a.order) }

func (a Arena) set(lot kitchen.Lot) { a.lots[lot.ID] = lot }
