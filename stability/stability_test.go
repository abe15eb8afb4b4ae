package stability

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerplanner/allocate"
	"dinnerplanner/kitchen"
)

func testLots() []kitchen.Lot {
	exp := kitchen.MustDate("2025-03-12")
	return []kitchen.Lot{
		{ID: "lot-1", Name: "rice", Amount: kitchen.ExactAmount(decimal.NewFromInt(500)), Unit: "g"},
		{ID: "lot-2", Name: "spinach", Amount: kitchen.EstimateAmount(decimal.NewFromInt(200)), Unit: "g", ExpiresOn: &exp},
		{ID: "lot-3", Name: "eggs", Amount: kitchen.UnknownAmount(), Unit: "count"},
	}
}

func testBlocks() []kitchen.CalendarBlock {
	base := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	return []kitchen.CalendarBlock{
		{Start: base, End: base.Add(time.Hour), Source: "work", Title: "standup"},
		{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), Source: "family"},
		{Start: base.Add(-time.Hour), End: base, Source: "gym"},
	}
}

func baseKey() KeyInput {
	return KeyInput{
		HouseholdID:     "hh-1",
		Horizon:         Horizon{Mode: "next_n_dinners", NDinners: 3},
		Overrides:       map[string]string{"2025-03-11": "skip"},
		Options:         map[string]string{"band_pct": "10"},
		InventoryDigest: InventoryDigest(testLots()),
		CalendarDigest:  CalendarDigest(testBlocks()),
	}
}

func TestStableKey_Idempotent(t *testing.T) {
	want := StableKey(baseKey())
	for i := 0; i < 100; i++ {
		require.Equal(t, want, StableKey(baseKey()), "call %d", i)
	}
	assert.Len(t, want, 64)
}

func TestStableKey_Sensitivity(t *testing.T) {
	base := StableKey(baseKey())

	tests := []struct {
		name   string
		mutate func(*KeyInput)
	}{
		{"household", func(k *KeyInput) { k.HouseholdID = "hh-2" }},
		{"n dinners", func(k *KeyInput) { k.Horizon.NDinners = 4 }},
		{"mode", func(k *KeyInput) { k.Horizon.Mode = "next_meal" }},
		{"range start", func(k *KeyInput) { k.Horizon.Start = "2025-03-10" }},
		{"inventory digest", func(k *KeyInput) { k.InventoryDigest = "x" }},
		{"calendar digest", func(k *KeyInput) { k.CalendarDigest = "x" }},
		{"override value", func(k *KeyInput) { k.Overrides = map[string]string{"2025-03-11": "cook"} }},
		{"override added", func(k *KeyInput) { k.Overrides = map[string]string{"2025-03-11": "skip", "2025-03-12": "skip"} }},
		{"overrides removed", func(k *KeyInput) { k.Overrides = nil }},
		{"option", func(k *KeyInput) { k.Options = map[string]string{"band_pct": "0"} }},
		{"delimiter forgery", func(k *KeyInput) { k.HouseholdID = "hh-1|next_n_dinners" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := baseKey()
			tt.mutate(&k)
			assert.NotEqual(t, base, StableKey(k))
		})
	}
}

func TestStableKey_MapOrderIrrelevant(t *testing.T) {
	a := baseKey()
	a.Options = map[string]string{"a": "1", "b": "2", "c": "3"}
	b := baseKey()
	b.Options = map[string]string{"c": "3", "a": "1", "b": "2"}
	assert.Equal(t, StableKey(a), StableKey(b))
}

func TestInventoryDigest(t *testing.T) {
	lots := testLots()
	want := InventoryDigest(lots)

	reversed := []kitchen.Lot{lots[2], lots[0], lots[1]}
	assert.Equal(t, want, InventoryDigest(reversed), "order independent")

	mutations := map[string]func(l []kitchen.Lot){
		"one gram": func(l []kitchen.Lot) {
			l[0].Amount = kitchen.ExactAmount(decimal.NewFromInt(501))
		},
		"fractional gram": func(l []kitchen.Lot) {
			l[0].Amount = kitchen.ExactAmount(decimal.RequireFromString("500.001"))
		},
		"name": func(l []kitchen.Lot) { l[0].Name = "brown rice" },
		"unit": func(l []kitchen.Lot) { l[0].Unit = "kg" },
		"id":   func(l []kitchen.Lot) { l[0].ID = "lot-9" },
		"expiry": func(l []kitchen.Lot) {
			d := kitchen.MustDate("2025-03-13")
			l[1].ExpiresOn = &d
		},
		"expiry removed": func(l []kitchen.Lot) { l[1].ExpiresOn = nil },
		"created_at": func(l []kitchen.Lot) {
			l[0].CreatedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		},
		"became unknown": func(l []kitchen.Lot) { l[0].Amount = kitchen.UnknownAmount() },
		"lot removed":    func(l []kitchen.Lot) { l[2] = l[1] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			l := testLots()
			mutate(l)
			assert.NotEqual(t, want, InventoryDigest(l))
		})
	}
}

func TestInventoryDigest_CreationOrder(t *testing.T) {
	early := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	rice := func(aCreated, bCreated time.Time) []kitchen.Lot {
		return []kitchen.Lot{
			{ID: "a", Name: "rice", Amount: kitchen.ExactAmount(decimal.NewFromInt(300)), Unit: "g", CreatedAt: aCreated},
			{ID: "b", Name: "rice", Amount: kitchen.ExactAmount(decimal.NewFromInt(300)), Unit: "g", CreatedAt: bCreated},
		}
	}
	x, y := rice(early, late), rice(late, early)

	req := []kitchen.Requirement{{Name: "rice", Quantity: decimal.NewFromInt(200), Unit: "g"}}
	first := func(lots []kitchen.Lot) string {
		arena, err := allocate.NewArena(lots)
		require.NoError(t, err)
		_, res, err := allocate.Allocate(arena, req)
		require.NoError(t, err)
		require.Len(t, res.Allocations, 1)
		return res.Allocations[0].LotID
	}
	require.NotEqual(t, first(x), first(y), "creation time decides which lot is drawn")
	assert.NotEqual(t, InventoryDigest(x), InventoryDigest(y))

	zoned := rice(early.In(time.FixedZone("UTC+2", 2*3600)), late)
	assert.Equal(t, InventoryDigest(x), InventoryDigest(zoned), "same instant in another zone")
}

func TestCalendarDigest(t *testing.T) {
	blocks := testBlocks()
	want := CalendarDigest(blocks)
	assert.Equal(t, want, CalendarDigest([]kitchen.CalendarBlock{blocks[1], blocks[2], blocks[0]}))

	shifted := testBlocks()
	shifted[0].End = shifted[0].End.Add(time.Minute)
	assert.NotEqual(t, want, CalendarDigest(shifted))

	// Same instant in another zone is the same block.
	zoned := testBlocks()
	loc := time.FixedZone("UTC+2", 2*3600)
	zoned[0].Start = zoned[0].Start.In(loc)
	assert.Equal(t, want, CalendarDigest(zoned))

	assert.NotEqual(t, CalendarDigest(nil), want)
}

func TestThreshold(t *testing.T) {
	assert.True(t, decimal.NewFromInt(110).Equal(Threshold(100, 10)))
	assert.True(t, decimal.NewFromInt(100).Equal(Threshold(100, 0)))
	assert.True(t, decimal.RequireFromString("37.5").Equal(Threshold(25, 50)))
}

func TestDecide_BandBoundary(t *testing.T) {
	date := kitchen.MustDate("2025-03-10")
	old := Existing{Slug: "old-recipe", Score: 100}

	tests := []struct {
		band       float64
		newScore   float64
		newSlug    string
		outcome    Outcome
		withinBand bool
		rerun      bool
	}{
		{10, 110, "new-recipe", Kept, true, true},
		{10, 110.01, "new-recipe", Changed, false, false},
		{10, 90, "new-recipe", Kept, true, true},
		{0, 100, "new-recipe", Kept, true, true},
		{0, 100.0001, "new-recipe", Changed, false, false},
		{10, 150, "old-recipe", Kept, false, false},
		{10, 105, "old-recipe", Kept, true, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("band=%v new=%v slug=%s", tt.band, tt.newScore, tt.newSlug), func(t *testing.T) {
			d := Decide(date, old, tt.newSlug, tt.newScore, tt.band)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.withinBand, d.WithinBand)
			assert.Equal(t, tt.rerun, d.NeedsRerun())
			assert.Equal(t, tt.band, d.BandPct)
			assert.Equal(t, 100.0, d.OldScore)
			assert.Equal(t, tt.newScore, d.NewScore)
		})
	}
}

func TestDecision_OldExcluded(t *testing.T) {
	d := Decide(kitchen.MustDate("2025-03-10"), Existing{Slug: "old", Score: 50}, "new", 51, 10)
	require.Equal(t, "old", d.ChosenSlug)

	ex := d.OldExcluded()
	assert.Equal(t, ChangedOldExcluded, ex.Outcome)
	assert.Equal(t, "new", ex.ChosenSlug)
	assert.True(t, ex.WithinBand, "band flag still recorded")
}
