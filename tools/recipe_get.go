package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
	"dinnerplanner/tools/storage"
)

type RecipeGet struct{ src storage.Sources }

func NewRecipeGet(src storage.Sources) *RecipeGet { return &RecipeGet{src: src} }

func (t *RecipeGet) Name() string  { return "recipe_get" }
func (t *RecipeGet) Title() string { return "Get Recipes" }
func (t *RecipeGet) Description() string {
	return "Gets recipes filtered by tags (optional). With a household_id each recipe reports equipment_ok and the tools the household lacks."
}

func (t *RecipeGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"tags": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"household_id": {Type: "string"},
		},
	}
}

func (t *RecipeGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"slug":              {Type: "string"},
						"name":              {Type: "string"},
						"total_minutes":     {Type: "integer"},
						"equipment_ok":      {Type: "boolean"},
						"missing_equipment": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"slug", "name", "total_minutes"},
				},
			},
		},
		Required: []string{"recipes"},
	}
}

type recipeInput struct {
	Tags        []string `json:"tags"`
	HouseholdID string   `json:"household_id"`
}

type recipeOut struct {
	kitchen.Recipe
	TotalMinutes     int      `json:"total_minutes"`
	EquipmentOK      *bool    `json:"equipment_ok,omitempty"`
	MissingEquipment []string `json:"missing_equipment,omitempty"`
}

func (t *RecipeGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in recipeInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	var (
		recipes   []kitchen.Recipe
		household *kitchen.Household
	)
	if in.HouseholdID != "" {
		snap, err := storage.LoadSnapshot(ctx, t.src, in.HouseholdID, 0)
		if err != nil {
			return nil, err
		}
		recipes, household = snap.Recipes, &snap.Household
	} else {
		var err error
		if recipes, err = storage.LoadRecipes(ctx, t.src.Recipes); err != nil {
			return nil, err
		}
	}

	want := map[string]bool{}
	for _, tag := range in.Tags {
		if tag = kitchen.CanonicalName(tag); tag != "" {
			want[tag] = true
		}
	}

	out := make([]recipeOut, 0, len(recipes))
	for _, r := range recipes {
		if len(want) > 0 && !hasAnyTag(r.Tags, want) {
			continue
		}
		ro := recipeOut{Recipe: r, TotalMinutes: r.TotalMinutes()}
		if household != nil {
			missing := planner.Gate(r.Equipment, household.Equipment)
			ok := len(missing) == 0
			ro.EquipmentOK, ro.MissingEquipment = &ok, missing
		}
		out = append(out, ro)
	}

	return toOutput(map[string]any{"recipes": out})
}

func hasAnyTag(tags []string, want map[string]bool) bool {
	for _, tag := range tags {
		if want[kitchen.CanonicalName(tag)] {
			return true
		}
	}
	return false
}
