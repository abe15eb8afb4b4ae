package scoring

import "sort"

// Tie-break rule names, in the order they are applied.
const (
	RuleFinalScore = "highest_final_score"
	RuleMissing    = "lowest_missing_ingredients"
	RuleWaste      = "highest_waste_score"
	RuleTotalTime  = "shortest_total_time"
	RuleSlug       = "lexicographic_slug"
)

// Rankable is the view of a candidate the tie-break chain needs.
type Rankable struct {
	Slug         string
	Final        float64
	Waste        float64
	MissingCount int
	TotalMinutes int
}

// compare returns <0 when a ranks ahead of b, and the rule that decided it.
func compare(a, b Rankable) (int, string) {
	switch {
	case a.Final != b.Final:
		if a.Final > b.Final {
			return -1, RuleFinalScore
		}
		return 1, RuleFinalScore
	case a.MissingCount != b.MissingCount:
		return a.MissingCount - b.MissingCount, RuleMissing
	case a.Waste != b.Waste:
		if a.Waste > b.Waste {
			return -1, RuleWaste
		}
		return 1, RuleWaste
	case a.TotalMinutes != b.TotalMinutes:
		return a.TotalMinutes - b.TotalMinutes, RuleTotalTime
	case a.Slug != b.Slug:
		if a.Slug < b.Slug {
			return -1, RuleSlug
		}
		return 1, RuleSlug
	}
	return 0, ""
}

// Rank returns the indexes of cands in winning order.
func Rank(cands []Rankable) []int {
	idx := make([]int, len(cands))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c, _ := compare(cands[idx[i]], cands[idx[j]])
		return c < 0
	})
	return idx
}

// TieBreaker names the rule separating the top two ranked candidates. It
// returns nil when the final score alone decided, or when there is no
// runner-up.
func TieBreaker(first, second *Rankable) *string {
	if first == nil || second == nil {
		return nil
	}
	_, rule := compare(*first, *second)
	if rule == "" || rule == RuleFinalScore {
		return nil
	}
	return &rule
}
