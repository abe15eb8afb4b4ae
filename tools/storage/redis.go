package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dinnerplanner/horizon"
)

// RedisPlanStore keeps plan JSON under plan:<key> and the active pointer under
// plan:active:<household>, both expiring after ttl (zero keeps them forever).
type RedisPlanStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanStore(client *redis.Client, ttl time.Duration) *RedisPlanStore {
	return &RedisPlanStore{client: client, ttl: ttl}
}

func planRedisKey(key string) string { return "plan:" + key }
func activeRedisKey(householdID string) string { return "plan:active:" + householdID }

func (s *RedisPlanStore) FindByKey(ctx context.Context, key string) (horizon.PlanSet, error) {
	data, err := s.client.Get(ctx, planRedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	if err != nil {
		return horizon.PlanSet{}, fmt.Errorf("failed to get plan %s: %w", key, err)
	}
	return decodePlan(data)
}

func (s *RedisPlanStore) FindActive(ctx context.Context, householdID string) (horizon.PlanSet, error) {
	key, err := s.client.Get(ctx, activeRedisKey(householdID)).Result()
	if errors.Is(err, redis.Nil) {
		return horizon.PlanSet{}, ErrPlanNotFound
	}
	if err != nil {
		return horizon.PlanSet{}, fmt.Errorf("failed to get active plan for %s: %w", householdID, err)
	}
	return s.FindByKey(ctx, key)
}

func (s *RedisPlanStore) Save(ctx context.Context, ps horizon.PlanSet) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, planRedisKey(ps.StableKey), data, s.ttl)
		if !ps.Status.Terminal() {
			pipe.Set(ctx, activeRedisKey(ps.HouseholdID), ps.StableKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", ps.StableKey, err)
	}
	return nil
}
