package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"dinnerplanner/horizon"
)

type FileState struct {
	FilePath string
}

func NewFileState(filePath string) *FileState {
	return &FileState{FilePath: filePath}
}

func (f *FileState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}

// FilePlanStore keeps one JSON file per plan plus one active-pointer file per
// household under Dir.
type FilePlanStore struct {
	Dir string
}

func NewFilePlanStore(dir string) *FilePlanStore {
	return &FilePlanStore{Dir: dir}
}

func (f *FilePlanStore) planPath(key string) string {
	return filepath.Join(f.Dir, "plans", key+".json")
}

func (f *FilePlanStore) activePath(householdID string) string {
	return filepath.Join(f.Dir, "active", url.PathEscape(householdID))
}

func (f *FilePlanStore) FindByKey(ctx context.Context, key string) (horizon.PlanSet, error) {
	data, err := os.ReadFile(f.planPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	if err != nil {
		return horizon.PlanSet{}, fmt.Errorf("failed to read plan %s: %w", key, err)
	}
	return decodePlan(data)
}

func (f *FilePlanStore) FindActive(ctx context.Context, householdID string) (horizon.PlanSet, error) {
	key, err := os.ReadFile(f.activePath(householdID))
	if errors.Is(err, os.ErrNotExist) {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	if err != nil {
		return horizon.PlanSet{}, fmt.Errorf("failed to read active plan for %s: %w", householdID, err)
	}
	return f.FindByKey(ctx, string(key))
}

func (f *FilePlanStore) Save(ctx context.Context, ps horizon.PlanSet) error {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	for _, dir := range []string{filepath.Dir(f.planPath(ps.StableKey)), filepath.Dir(f.activePath(ps.HouseholdID))} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plan directory: %w", err)
		}
	}
	if err := os.WriteFile(f.planPath(ps.StableKey), data, 0o644); err != nil {
		return fmt.Errorf("failed to write plan %s: %w", ps.StableKey, err)
	}
	if ps.Status.Terminal() {
		return nil
	}
	if err := os.WriteFile(f.activePath(ps.HouseholdID), []byte(ps.StableKey), 0o644); err != nil {
		return fmt.Errorf("failed to write active plan for %s: %w", ps.HouseholdID, err)
	}
	return nil
}
