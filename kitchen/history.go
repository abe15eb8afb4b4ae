package kitchen

import "time"

// CalendarBlock is one busy interval from a household calendar.
type CalendarBlock struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Source string    `json:"source"`
	Title  string    `json:"title,omitempty"`
}

// ConsumptionRecord is one cooked meal, as kept by the external event log.
type ConsumptionRecord struct {
	Date        Date     `json:"date"`
	RecipeSlug  string   `json:"recipe_slug"`
	Ingredients []string `json:"ingredients"`
	Tags        []string `json:"tags,omitempty"`
}
