package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"dinnerplanner/horizon"
	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
	"dinnerplanner/shadow"
	"dinnerplanner/tools/storage"
)

type PantryGet struct {
	src storage.Sources
	now func() time.Time
}

func NewPantryGet(src storage.Sources, now func() time.Time) *PantryGet {
	if now == nil {
		now = time.Now
	}
	return &PantryGet{src: src, now: now}
}

func (t *PantryGet) Name() string  { return "pantry_get" }
func (t *PantryGet) Title() string { return "Get Pantry (with freshness)" }
func (t *PantryGet) Description() string {
	return "Returns a household's inventory lots with days_to_expiry and urgency as of a date, plus the names expiring within two days. The date defaults to the next dinner."
}

func (t *PantryGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"household_id": {Type: "string"},
			"date":         {Type: "string", Format: "date"},
		},
		Required: []string{"household_id"},
	}
}

func (t *PantryGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"household_id": {Type: "string"},
			"date":         {Type: "string", Format: "date"},
			"lots": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"lot_id":              {Type: "string"},
						"name":                {Type: "string"},
						"quantity":            {Types: []string{"string", "null"}, Description: "decimal string, null when unknown"},
						"quantity_confidence": {Type: "string", Enum: []any{"exact", "estimate", "unknown"}},
						"unit":                {Type: "string"},
						"expiration_date":     {Types: []string{"string", "null"}},
						"days_to_expiry":      {Types: []string{"integer", "null"}},
						"urgency":             {Type: "integer"},
					},
					Required: []string{"lot_id", "name", "quantity", "quantity_confidence", "unit", "urgency"},
				},
			},
			"expiring": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"expired":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"household_id", "date", "lots", "expiring"},
	}
}

type pantryInput struct {
	HouseholdID string       `json:"household_id"`
	Date        kitchen.Date `json:"date"`
}

type pantryOutput struct {
	HouseholdID string                `json:"household_id"`
	Date        kitchen.Date          `json:"date"`
	Lots        []planner.LotSnapshot `json:"lots"`
	Expiring    []string              `json:"expiring"`
	Expired     []string              `json:"expired"`
}

func (t *PantryGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in pantryInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	snap, err := storage.LoadSnapshot(ctx, t.src, in.HouseholdID, 0)
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		if date, err = horizon.NextMealDate(snap.Household, t.now()); err != nil {
			return nil, err
		}
	}

	out := pantryOutput{
		HouseholdID: in.HouseholdID,
		Date:        date,
		Expired:     []string{},
	}
	inv := shadow.New(snap.Lots, date)
	for _, it := range inv.Items() {
		if it.ExpiresInDays != nil && *it.ExpiresInDays < 0 {
			out.Expired = append(out.Expired, it.Lot.ID)
		}
	}
	out.Lots = planner.InventorySnapshot(inv.Lots(), date)
	out.Expiring = inv.ExpiringNames()

	return toOutput(out)
}
