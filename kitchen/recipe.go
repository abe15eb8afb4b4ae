package kitchen

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CanonicalName normalizes ingredient, tool and tag names for matching.
func CanonicalName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Requirement is one ingredient line of a recipe.
type Requirement struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Optional bool            `json:"optional,omitempty"`
}

func (r *Requirement) UnmarshalJSON(b []byte) error {
	type alias Requirement
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.Name = CanonicalName(a.Name)
	a.Unit = CanonicalName(a.Unit)
	*r = Requirement(a)
	return nil
}

// Recipe is a static catalog entry.
type Recipe struct {
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	PrepMinutes int           `json:"prep_minutes"`
	CookMinutes int           `json:"cook_minutes"`
	Equipment   []string      `json:"equipment,omitempty"`
	Ingredients []Requirement `json:"ingredients"`
	Tags        []string      `json:"tags,omitempty"`
}

func (r Recipe) TotalMinutes() int { return r.PrepMinutes + r.CookMinutes }

// RequiredIngredients returns the non-optional ingredient lines in recipe order.
func (r Recipe) RequiredIngredients() []Requirement {
	out := make([]Requirement, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if !ing.Optional {
			out = append(out, ing)
		}
	}
	return out
}

// IngredientNames returns the distinct required ingredient names in recipe order.
func (r Recipe) IngredientNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ing := range r.RequiredIngredients() {
		if seen[ing.Name] {
			continue
		}
		seen[ing.Name] = true
		out = append(out, ing.Name)
	}
	return out
}

var cuisines = map[string]bool{
	"italian":        true,
	"mexican":        true,
	"indian":         true,
	"thai":           true,
	"chinese":        true,
	"japanese":       true,
	"korean":         true,
	"vietnamese":     true,
	"mediterranean":  true,
	"greek":          true,
	"french":         true,
	"spanish":        true,
	"american":       true,
	"middle_eastern": true,
}

// CuisineTags returns the tags naming a cuisine, either "cuisine:<x>" or a
// known cuisine word, normalized to the bare cuisine name.
func CuisineTags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = CanonicalName(t)
		name, prefixed := strings.CutPrefix(t, "cuisine:")
		if !prefixed && !cuisines[name] {
			continue
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
