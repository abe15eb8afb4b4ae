package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"dinnerplanner"
	"dinnerplanner/planner"
)

// DinnerPlan runs the planning coordinator for one household and horizon.
type DinnerPlan struct{ coord dinnerplanner.Coordinator }

func NewDinnerPlan(coord dinnerplanner.Coordinator) *DinnerPlan { return &DinnerPlan{coord: coord} }

func (t *DinnerPlan) Name() string  { return "dinner_plan" }
func (t *DinnerPlan) Title() string { return "Plan Dinners" }
func (t *DinnerPlan) Description() string {
	return "Plans dinners for a household over a horizon (next_meal, next_n_dinners or date_range). Repeating an identical request returns the same plan."
}

func (t *DinnerPlan) InputSchema() *jsonschema.Schema {
	minN := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"household_id": {Type: "string"},
			"horizon": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"mode":      {Type: "string", Enum: []any{"next_meal", "next_n_dinners", "date_range"}},
					"n_dinners": {Type: "integer", Minimum: &minN},
					"start":     {Type: "string", Format: "date"},
					"end":       {Type: "string", Format: "date"},
				},
			},
			"exclude": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"overrides": {
				Type:                 "object",
				Description:          `date (YYYY-MM-DD) to "skip" or "prefer:<recipe slug>"`,
				AdditionalProperties: &jsonschema.Schema{Type: "string"},
			},
			"now": {
				Type:        "string",
				Format:      "date-time",
				Description: "planning instant, defaults to the current time",
			},
		},
		Required: []string{"household_id"},
	}
}

func (t *DinnerPlan) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"plan_set": {
				Type: "object",
				// keep schema open, traces are large
			},
			"idempotent": {Type: "boolean"},
			"narration":  {Type: "string"},
		},
		Required: []string{"plan_set", "idempotent", "narration"},
	}
}

func (t *DinnerPlan) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var req dinnerplanner.PlanRequest
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.HouseholdID == "" {
		return nil, fmt.Errorf("%w: household_id is required", planner.ErrInvalidInput)
	}

	res, err := t.coord.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return toOutput(res)
}

// PlanResultFromOutput turns a dinner_plan output back into a PlanResult.
func PlanResultFromOutput(output map[string]any) (dinnerplanner.PlanResult, error) {
	var res dinnerplanner.PlanResult
	b, err := json.Marshal(output)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return res, fmt.Errorf("failed to decode plan result: %w", err)
	}
	return res, nil
}
