package kitchen

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLot_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		confidence Confidence
		quantity   string // empty means unknown
		wantErr    bool
	}{
		{
			name:       "exact quantity",
			input:      `{"id":"l1","name":" Olive Oil ","quantity":20,"quantity_confidence":"exact","unit":"ML"}`,
			confidence: Exact,
			quantity:   "20",
		},
		{
			name:       "estimate quantity as string",
			input:      `{"id":"l2","name":"rice","quantity":"450.5","quantity_confidence":"estimate","unit":"g"}`,
			confidence: Estimate,
			quantity:   "450.5",
		},
		{
			name:       "missing confidence defaults to exact",
			input:      `{"id":"l3","name":"rice","quantity":10,"unit":"g"}`,
			confidence: Exact,
			quantity:   "10",
		},
		{
			name:       "null quantity is unknown",
			input:      `{"id":"l4","name":"eggs","quantity":null,"quantity_confidence":"exact","unit":"count"}`,
			confidence: Unknown,
		},
		{
			name:       "unknown confidence drops the number",
			input:      `{"id":"l5","name":"eggs","quantity":6,"quantity_confidence":"unknown","unit":"count"}`,
			confidence: Unknown,
		},
		{
			name:    "negative quantity rejected",
			input:   `{"id":"l6","name":"eggs","quantity":-1,"unit":"count"}`,
			wantErr: true,
		},
		{
			name:    "bad confidence rejected",
			input:   `{"id":"l7","name":"eggs","quantity":1,"quantity_confidence":"roughly","unit":"count"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lot Lot
			err := json.Unmarshal([]byte(tt.input), &lot)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.confidence, lot.Amount.Confidence())

			q, ok := lot.Amount.Quantity()
			if tt.quantity == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.True(t, decimal.RequireFromString(tt.quantity).Equal(q), "got %s", q)
		})
	}

	t.Run("names and units are canonicalized", func(t *testing.T) {
		var lot Lot
		require.NoError(t, json.Unmarshal([]byte(tests[0].input), &lot))
		assert.Equal(t, "olive oil", lot.Name)
		assert.Equal(t, "ml", lot.Unit)
	})
}

func TestLot_RoundTripKeepsUnknown(t *testing.T) {
	exp := MustDate("2025-03-04")
	in := Lot{ID: "l1", Name: "eggs", Amount: UnknownAmount(), Unit: "count", ExpiresOn: &exp}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"quantity":null`)
	assert.Contains(t, string(b), `"expiration_date":"2025-03-04"`)

	var out Lot
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, out.Amount.IsUnknown())
	assert.True(t, exp.Equal(*out.ExpiresOn))
}

func TestAmount_WithQuantityOnUnknown(t *testing.T) {
	a := UnknownAmount().WithQuantity(decimal.NewFromInt(5))
	_, ok := a.Quantity()
	assert.False(t, ok, "unknown amounts never gain a number")

	b := EstimateAmount(decimal.NewFromInt(5)).WithQuantity(decimal.NewFromInt(2))
	q, ok := b.Quantity()
	require.True(t, ok)
	assert.Equal(t, Estimate, b.Confidence())
	assert.True(t, q.Equal(decimal.NewFromInt(2)))
}

func TestDate(t *testing.T) {
	d := MustDate("2025-03-01")
	assert.Equal(t, 3, d.DaysUntil(MustDate("2025-03-04")))
	assert.Equal(t, -1, d.DaysUntil(MustDate("2025-02-28")))
	assert.Equal(t, "2025-03-31", d.AddDays(30).String())

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// DST starts 2025-03-09 in New York; date arithmetic must ignore it.
	assert.Equal(t, 10, d.DaysUntil(MustDate("2025-03-11")))
	assert.Equal(t, "2025-03-09", DateOf(time.Date(2025, 3, 9, 23, 30, 0, 0, ny)).String())

	at := d.At(NewClockTime(18, 30), ny)
	assert.Equal(t, 18, at.Hour())
	assert.Equal(t, 30, at.Minute())
}

func TestLot_DaysToExpiry(t *testing.T) {
	ref := MustDate("2025-03-01")
	exp := MustDate("2025-02-27")

	assert.Nil(t, Lot{}.DaysToExpiry(ref))
	assert.False(t, Lot{}.Expired(ref))

	lot := Lot{ExpiresOn: &exp}
	assert.Equal(t, -2, *lot.DaysToExpiry(ref))
	assert.True(t, lot.Expired(ref))
}

func TestClockTime(t *testing.T) {
	c, err := ParseClockTime("18:05")
	require.NoError(t, err)
	assert.Equal(t, NewClockTime(18, 5), c)
	assert.Equal(t, "18:05", c.String())

	_, err = ParseClockTime("25:00")
	assert.Error(t, err)

	var h Household
	require.NoError(t, json.Unmarshal([]byte(`{"id":"h1","timezone":"Europe/Lisbon","dinner_earliest":"18:00","dinner_latest":"21:00","equipment":{"oven":true}}`), &h))
	assert.Equal(t, NewClockTime(21, 0), h.DinnerLatest)
	assert.NoError(t, h.Validate())
	assert.True(t, h.Equipment.Has("Oven"))
	assert.False(t, h.Equipment.Has("blender"))
	assert.False(t, h.Equipment.Has("sous vide"))
}

func TestHousehold_Validate(t *testing.T) {
	assert.Error(t, Household{}.Validate())
	assert.Error(t, Household{ID: "h1", Timezone: "Mars/Olympus"}.Validate())
	assert.NoError(t, Household{ID: "h1"}.Validate())
}

func TestRecipe_Helpers(t *testing.T) {
	r := Recipe{
		PrepMinutes: 10,
		CookMinutes: 25,
		Ingredients: []Requirement{
			{Name: "chickpeas"},
			{Name: "parsley", Optional: true},
			{Name: "chickpeas"},
			{Name: "lemon"},
		},
		Tags: []string{"Cuisine:Moroccan", "mediterranean", "quick", "italian", "cuisine:italian"},
	}

	assert.Equal(t, 35, r.TotalMinutes())
	assert.Len(t, r.RequiredIngredients(), 3)
	assert.Equal(t, []string{"chickpeas", "lemon"}, r.IngredientNames())
	assert.Equal(t, []string{"moroccan", "mediterranean", "italian"}, CuisineTags(r.Tags))
}
