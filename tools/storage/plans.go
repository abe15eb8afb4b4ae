package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"dinnerplanner/horizon"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanStore persists PlanSets by stable key and tracks each household's
// active proposed plan. Saving a terminal plan never moves the active pointer.
type PlanStore interface {
	FindByKey(ctx context.Context, key string) (horizon.PlanSet, error)
	FindActive(ctx context.Context, householdID string) (horizon.PlanSet, error)
	Save(ctx context.Context, ps horizon.PlanSet) error
}

func decodePlan(data []byte) (horizon.PlanSet, error) {
	var ps horizon.PlanSet
	if err := json.Unmarshal(data, &ps); err != nil {
		return horizon.PlanSet{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	return ps, nil
}

// TestPlanStore is a simple in-memory implementation for testing
type TestPlanStore struct {
	mu     sync.Mutex
	plans  map[string][]byte
	active map[string]string
	err    error
}

func NewTestPlanStore() *TestPlanStore {
	return &TestPlanStore{plans: make(map[string][]byte), active: make(map[string]string)}
}

func NewTestPlanStoreWithError() *TestPlanStore {
	s := NewTestPlanStore()
	s.err = errors.New("store unavailable")
	return s
}

func (t *TestPlanStore) FindByKey(ctx context.Context, key string) (horizon.PlanSet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return horizon.PlanSet{}, t.err
	}
	data, ok := t.plans[key]
	if !ok {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	return decodePlan(data)
}

func (t *TestPlanStore) FindActive(ctx context.Context, householdID string) (horizon.PlanSet, error) {
	t.mu.Lock()
	key, ok := t.active[householdID]
	err := t.err
	t.mu.Unlock()
	if err != nil {
		return horizon.PlanSet{}, err
	}
	if !ok {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	return t.FindByKey(ctx, key)
}

func (t *TestPlanStore) Save(ctx context.Context, ps horizon.PlanSet) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.plans[ps.StableKey] = data
	if !ps.Status.Terminal() {
		t.active[ps.HouseholdID] = ps.StableKey
	}
	return nil
}

// Len returns the number of stored plans.
func (t *TestPlanStore) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.plans)
}
