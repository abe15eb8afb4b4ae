package dinnerplanner

import (
	"context"
	"net/http"
	"time"

	"dinnerplanner/horizon"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Coordinator runs one planning request end to end.
type Coordinator interface {
	Run(ctx context.Context, req PlanRequest) (PlanResult, error)
}

// Narrator turns a plan into a short message for the household.
type Narrator interface {
	Narrate(ctx context.Context, ps horizon.PlanSet) (string, error)
}

// PlanRequest is what a caller asks the planner for.
type PlanRequest struct {
	HouseholdID string            `json:"household_id"`
	Horizon     horizon.Spec      `json:"horizon"`
	Exclude     []string          `json:"exclude,omitempty"`
	Overrides   map[string]string `json:"overrides,omitempty"`
	// Now is the planning clock; zero means the coordinator's clock.
	Now time.Time `json:"now,omitzero"`
}

// PlanResult is the plan plus how it was obtained.
type PlanResult struct {
	PlanSet    horizon.PlanSet `json:"plan_set"`
	Idempotent bool            `json:"idempotent"`
	Narration  string          `json:"narration"`
}
