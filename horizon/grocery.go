package horizon

import (
	"sort"

	"github.com/shopspring/decimal"

	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
)

// GroceryItem is one consolidated shopping need across the horizon.
type GroceryItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Dates    []kitchen.Date  `json:"dates"`
	Recipes  []string        `json:"recipes"`
}

// Consolidate merges every day's missing ingredients by name and unit.
func Consolidate(days []planner.Day) []GroceryItem {
	type key struct{ name, unit string }
	byKey := make(map[key]*GroceryItem)
	for _, d := range days {
		for _, m := range d.Missing {
			k := key{m.Name, m.Unit}
			it, ok := byKey[k]
			if !ok {
				it = &GroceryItem{Name: m.Name, Unit: m.Unit, Quantity: decimal.Zero}
				byKey[k] = it
			}
			it.Quantity = it.Quantity.Add(m.Quantity)
			if n := len(it.Dates); n == 0 || !it.Dates[n-1].Equal(d.Date) {
				it.Dates = append(it.Dates, d.Date)
			}
			if n := len(it.Recipes); n == 0 || it.Recipes[n-1] != d.RecipeSlug {
				it.Recipes = append(it.Recipes, d.RecipeSlug)
			}
		}
	}

	out := make([]GroceryItem, 0, len(byKey))
	for _, it := range byKey {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}
