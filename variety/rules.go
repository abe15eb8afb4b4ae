package variety

import "dinnerplanner/kitchen"

// Rule penalizes repeating any member ingredient of a category within
// AvoidRepeatDays of the planning date.
type Rule struct {
	Category             string   `json:"category"`
	Members              []string `json:"members"`
	AvoidRepeatDays      int      `json:"avoid_repeat_days"`
	PenaltyPerOccurrence float64  `json:"penalty_per_occurrence"`
}

// DefaultRules is the static category table.
var DefaultRules = []Rule{
	{
		Category:             "legumes",
		Members:              []string{"chickpeas", "lentils", "black beans", "kidney beans", "white beans", "pinto beans", "edamame"},
		AvoidRepeatDays:      7,
		PenaltyPerOccurrence: 5,
	},
	{
		Category:             "proteins",
		Members:              []string{"chicken", "chicken thighs", "chicken breast", "beef", "ground beef", "pork", "salmon", "cod", "shrimp", "tofu", "tempeh"},
		AvoidRepeatDays:      3,
		PenaltyPerOccurrence: 4,
	},
	{
		Category:             "grains",
		Members:              []string{"rice", "pasta", "quinoa", "couscous", "noodles", "bulgur"},
		AvoidRepeatDays:      2,
		PenaltyPerOccurrence: 2,
	},
	{
		Category:             "leafy_greens",
		Members:              []string{"spinach", "kale", "chard", "lettuce", "arugula"},
		AvoidRepeatDays:      2,
		PenaltyPerOccurrence: 1,
	},
}

// Table indexes rules by member ingredient.
type Table struct {
	byIngredient map[string]Rule
}

// NewTable indexes rules. When an ingredient appears in several categories the
// first rule listing it wins.
func NewTable(rules []Rule) Table {
	t := Table{byIngredient: make(map[string]Rule)}
	for _, r := range rules {
		for _, m := range r.Members {
			name := kitchen.CanonicalName(m)
			if _, taken := t.byIngredient[name]; !taken {
				t.byIngredient[name] = r
			}
		}
	}
	return t
}

func (t Table) RuleFor(ingredient string) (Rule, bool) {
	r, ok := t.byIngredient[kitchen.CanonicalName(ingredient)]
	return r, ok
}
