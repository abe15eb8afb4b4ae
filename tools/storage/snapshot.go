package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
)

const DefaultHistoryLimit = 50

// Sources are the provider artifacts a planning request reads.
type Sources struct {
	Households State
	Recipes    State
	Inventory  State
	Calendar   State
	History    State
}

// Snapshot is one consistent read of every provider for one household.
type Snapshot struct {
	Household kitchen.Household
	Recipes   []kitchen.Recipe
	Lots      []kitchen.Lot
	Blocks    []kitchen.CalendarBlock
	History   []kitchen.ConsumptionRecord
}

type householdsDoc struct {
	Households []kitchen.Household `json:"households"`
}

type recipesDoc struct {
	Recipes []kitchen.Recipe `json:"recipes"`
}

// perHousehold is the shape of inventory, calendar and history artifacts.
type perHousehold[T any] struct {
	Households map[string][]T `json:"households"`
}

// LoadSnapshot reads every source concurrently and returns the slice of it
// belonging to householdID. History keeps only the latest historyLimit records.
func LoadSnapshot(ctx context.Context, src Sources, householdID string, historyLimit int) (Snapshot, error) {
	if householdID == "" {
		return Snapshot{}, fmt.Errorf("%w: household id is required", planner.ErrInvalidInput)
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	var (
		households householdsDoc
		recipes    recipesDoc
		inventory  perHousehold[kitchen.Lot]
		calendar   perHousehold[kitchen.CalendarBlock]
		history    perHousehold[kitchen.ConsumptionRecord]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadJSON(gctx, "households", src.Households, &households) })
	g.Go(func() error { return loadJSON(gctx, "recipes", src.Recipes, &recipes) })
	g.Go(func() error { return loadJSON(gctx, "inventory", src.Inventory, &inventory) })
	g.Go(func() error { return loadJSON(gctx, "calendar", src.Calendar, &calendar) })
	g.Go(func() error { return loadJSON(gctx, "history", src.History, &history) })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Recipes: recipes.Recipes,
		Blocks:  calendar.Households[householdID],
	}

	found := false
	for _, h := range households.Households {
		if h.ID == householdID {
			snap.Household, found = h, true
			break
		}
	}
	if !found {
		return Snapshot{}, fmt.Errorf("%w: household %s not found", planner.ErrInvalidInput, householdID)
	}

	// Depleted lots never reach the planner.
	for _, l := range inventory.Households[householdID] {
		if q, ok := l.Amount.Quantity(); ok && !q.IsPositive() {
			continue
		}
		snap.Lots = append(snap.Lots, l)
	}

	records := append([]kitchen.ConsumptionRecord(nil), history.Households[householdID]...)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	if len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}
	snap.History = records

	return snap, nil
}

// loadJSON decodes one source. A nil source reads as an empty document.
func loadJSON(ctx context.Context, name string, src State, v any) error {
	if src == nil {
		return nil
	}
	data, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", planner.ErrInvalidInput, name, err)
	}
	return nil
}

// LoadRecipes reads only the recipe catalog.
func LoadRecipes(ctx context.Context, src State) ([]kitchen.Recipe, error) {
	var doc recipesDoc
	if err := loadJSON(ctx, "recipes", src, &doc); err != nil {
		return nil, err
	}
	return doc.Recipes, nil
}
