package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerplanner/planner"
	"dinnerplanner/tools/storage"
)

const householdsJSON = `{"households": [
  {"id": "hh-1", "timezone": "UTC", "dinner_earliest": "17:00", "dinner_latest": "20:00",
   "equipment": {"oven": false, "stovetop": true, "blender": false}}
]}`

const recipesJSON = `{"recipes": [
  {"slug": "spinach-pasta", "name": "Spinach Pasta", "prep_minutes": 10, "cook_minutes": 15, "equipment": ["stovetop"],
   "ingredients": [{"name": "spinach", "quantity": 100, "unit": "g"}, {"name": "pasta", "quantity": 200, "unit": "g"}],
   "tags": ["cuisine:italian", "quick"]},
  {"slug": "roast-chicken", "name": "Roast Chicken", "prep_minutes": 15, "cook_minutes": 60, "equipment": ["oven"],
   "ingredients": [{"name": "chicken", "quantity": 1, "unit": "count"}], "tags": ["american"]},
  {"slug": "green-smoothie", "name": "Green Smoothie", "prep_minutes": 5, "cook_minutes": 0, "equipment": ["Blender", "oven"],
   "ingredients": [{"name": "spinach", "quantity": 50, "unit": "g"}], "tags": ["quick"]}
]}`

const inventoryJSON = `{"households": {"hh-1": [
  {"id": "spinach-1", "name": "Spinach", "quantity": 200, "quantity_confidence": "exact", "unit": "g", "expiration_date": "2025-03-11"},
  {"id": "milk-1", "name": "milk", "quantity": 500, "unit": "ml", "expiration_date": "2025-03-08"},
  {"id": "pasta-1", "name": "pasta", "quantity": null, "quantity_confidence": "unknown", "unit": "g"},
  {"id": "chicken-1", "name": "chicken", "quantity": 0, "unit": "count"}
]}}`

func testSources() storage.Sources {
	return storage.Sources{
		Households: storage.NewTestState([]byte(householdsJSON)),
		Recipes:    storage.NewTestState([]byte(recipesJSON)),
		Inventory:  storage.NewTestState([]byte(inventoryJSON)),
	}
}

func fixedNow() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

func TestPantryGet_Run(t *testing.T) {
	tool := NewPantryGet(testSources(), fixedNow)

	tests := []struct {
		name         string
		input        map[string]any
		wantDate     string
		wantLots     []string
		wantExpiring []any
		wantExpired  []any
	}{
		{
			name:         "date defaults to the next dinner",
			input:        map[string]any{"household_id": "hh-1"},
			wantDate:     "2025-03-10",
			wantLots:     []string{"spinach-1", "pasta-1"},
			wantExpiring: []any{"spinach"},
			wantExpired:  []any{"milk-1"},
		},
		{
			name:         "explicit date moves expiry forward",
			input:        map[string]any{"household_id": "hh-1", "date": "2025-03-12"},
			wantDate:     "2025-03-12",
			wantLots:     []string{"pasta-1"},
			wantExpiring: []any{},
			wantExpired:  []any{"spinach-1", "milk-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Run(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, "hh-1", result["household_id"])
			assert.Equal(t, tt.wantDate, result["date"])
			assert.Equal(t, tt.wantExpiring, result["expiring"])
			assert.Equal(t, tt.wantExpired, result["expired"])

			lots, ok := result["lots"].([]any)
			require.True(t, ok)
			var ids []string
			for _, l := range lots {
				ids = append(ids, l.(map[string]any)["lot_id"].(string))
			}
			assert.Equal(t, tt.wantLots, ids, "depleted chicken never shows up")
		})
	}

	t.Run("freshness fields", func(t *testing.T) {
		result, err := tool.Run(context.Background(), map[string]any{"household_id": "hh-1"})
		require.NoError(t, err)

		lots := result["lots"].([]any)
		spinach := lots[0].(map[string]any)
		assert.Equal(t, "spinach", spinach["name"])
		assert.Equal(t, "200", spinach["quantity"])
		assert.Equal(t, 1.0, spinach["days_to_expiry"])
		assert.Equal(t, 5.0, spinach["urgency"])

		pasta := lots[1].(map[string]any)
		assert.Nil(t, pasta["quantity"])
		assert.Equal(t, "unknown", pasta["quantity_confidence"])
		assert.Nil(t, pasta["days_to_expiry"])
		assert.Equal(t, 0.0, pasta["urgency"])
	})
}

func TestPantryGet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     storage.Sources
		input   map[string]any
		invalid bool
	}{
		{"missing household id", testSources(), map[string]any{}, true},
		{"unknown household", testSources(), map[string]any{"household_id": "hh-9"}, true},
		{"bad date", testSources(), map[string]any{"household_id": "hh-1", "date": "10/03/2025"}, true},
		{"corrupted inventory", storage.Sources{
			Households: storage.NewTestState([]byte(householdsJSON)),
			Inventory:  storage.NewTestState([]byte("invalid json")),
		}, map[string]any{"household_id": "hh-1"}, true},
		{"missing inventory data", storage.Sources{
			Households: storage.NewTestState([]byte(householdsJSON)),
			Inventory:  storage.NewTestStateWithError(),
		}, map[string]any{"household_id": "hh-1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPantryGet(tt.src, fixedNow).Run(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, planner.KindOf(err) == planner.KindInvalidInput, err.Error())
		})
	}
}

func TestPantryGet_ToolMethods(t *testing.T) {
	tool := NewPantryGet(testSources(), nil)

	t.Run("tool metadata", func(t *testing.T) {
		assert.Equal(t, "pantry_get", tool.Name())
		assert.Equal(t, "Get Pantry (with freshness)", tool.Title())
		assert.Contains(t, tool.Description(), "days_to_expiry")
	})

	t.Run("schemas are valid", func(t *testing.T) {
		inputSchema := tool.InputSchema()
		assert.Equal(t, "object", inputSchema.Type)
		assert.Contains(t, inputSchema.Properties, "household_id")
		assert.Contains(t, inputSchema.Properties, "date")
		assert.Equal(t, []string{"household_id"}, inputSchema.Required)

		outputSchema := tool.OutputSchema()
		assert.Equal(t, "object", outputSchema.Type)
		lotsSchema := outputSchema.Properties["lots"]
		require.NotNil(t, lotsSchema)
		assert.Equal(t, "array", lotsSchema.Type)

		itemProps := lotsSchema.Items.Properties
		for _, name := range []string{"lot_id", "name", "quantity", "quantity_confidence", "unit", "days_to_expiry", "urgency"} {
			assert.Contains(t, itemProps, name)
		}
	})
}

func BenchmarkPantryGet_Run(b *testing.B) {
	tool := NewPantryGet(testSources(), fixedNow)
	input := map[string]any{"household_id": "hh-1"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := tool.Run(context.Background(), input)
		require.NoError(b, err)
	}
}
