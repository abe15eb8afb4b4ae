package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dinnerplanner/horizon"
)

// NarrationSystemPrompt instructs an LLM narrator. The plan itself is fixed;
// the model only phrases it.
const NarrationSystemPrompt = `You write short dinner plan messages for a household.
You are given a finished plan as JSON. Do not change, add or drop any dinner.
For each day give the date, the recipe and one short reason drawn from the data
(for example ingredients that are about to expire). End with the shopping list
if it is not empty. Plain text, no markdown headings, at most 120 words.`

// DaySummary is one day of a plan reduced to what a reader needs.
type DaySummary struct {
	Date         string   `json:"date"`
	Recipe       string   `json:"recipe"`
	Window       string   `json:"window"`
	Score        float64  `json:"score"`
	UsesExpiring []string `json:"uses_expiring,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	Stability    string   `json:"stability,omitempty"`
}

// PlanSummary is the narration input.
type PlanSummary struct {
	HouseholdID string       `json:"household_id"`
	Days        []DaySummary `json:"days"`
	Shopping    []string     `json:"shopping"`
	Notes       []string     `json:"notes,omitempty"`
}

func Summarize(ps horizon.PlanSet) PlanSummary {
	outcomes := make(map[string]string, len(ps.Decisions))
	for _, d := range ps.Decisions {
		outcomes[d.Date.String()] = string(d.Outcome)
	}

	s := PlanSummary{
		HouseholdID: ps.HouseholdID,
		Days:        make([]DaySummary, 0, len(ps.Days)),
		Shopping:    make([]string, 0, len(ps.Grocery)),
		Notes:       ps.Notes,
	}
	for _, d := range ps.Days {
		name := d.RecipeName
		if name == "" {
			name = d.RecipeSlug
		}
		ds := DaySummary{
			Date:      d.Date.String(),
			Recipe:    name,
			Score:     d.Score.Final,
			Stability: outcomes[d.Date.String()],
		}
		if !d.Window.Start.IsZero() {
			ds.Window = d.Window.Start.Format("15:04") + "-" + d.Window.End.Format("15:04")
		}

		expiring := make(map[string]bool, len(d.Trace.Expiring))
		for _, n := range d.Trace.Expiring {
			expiring[n] = true
		}
		seen := make(map[string]bool)
		for _, a := range d.Consumption {
			if expiring[a.Ingredient] && !seen[a.Ingredient] {
				seen[a.Ingredient] = true
				ds.UsesExpiring = append(ds.UsesExpiring, a.Ingredient)
			}
		}
		for _, m := range d.Missing {
			ds.Missing = append(ds.Missing, m.Name)
		}
		s.Days = append(s.Days, ds)
	}
	for _, g := range ps.Grocery {
		s.Shopping = append(s.Shopping, fmt.Sprintf("%s %s %s", g.Name, g.Quantity.String(), g.Unit))
	}
	return s
}

// NarrationPrompt is the user message handed to an LLM narrator.
func NarrationPrompt(ps horizon.PlanSet) (string, error) {
	b, err := json.Marshal(Summarize(ps))
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan summary: %w", err)
	}
	return "Here is the plan:\n" + string(b), nil
}

// TemplateNarrator renders a plan without a model. Its output is a pure
// function of the plan.
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(ctx context.Context, ps horizon.PlanSet) (string, error) {
	s := Summarize(ps)

	var b strings.Builder
	fmt.Fprintf(&b, "Dinner plan for %s:\n", s.HouseholdID)
	if len(s.Days) == 0 {
		b.WriteString("- nothing to cook\n")
	}
	for _, d := range s.Days {
		fmt.Fprintf(&b, "- %s: %s", d.Date, d.Recipe)
		if d.Window != "" {
			fmt.Fprintf(&b, " (%s)", d.Window)
		}
		if len(d.UsesExpiring) > 0 {
			fmt.Fprintf(&b, ", uses up %s", strings.Join(d.UsesExpiring, ", "))
		}
		b.WriteString("\n")
	}
	if len(s.Shopping) > 0 {
		fmt.Fprintf(&b, "Shopping list: %s\n", strings.Join(s.Shopping, "; "))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
