package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"dinnerplanner/horizon"
)

// S3State implements State backed by one S3 object.
type S3State struct {
	bucket string
	key    string
	s3     *s3.Client
}

func NewS3State(s3Client *s3.Client, bucket, key string) *S3State {
	return &S3State{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3State) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from S3: %w", s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// S3PlanStore keeps plans as objects under prefix: <key>.json and
// active/<household>.
type S3PlanStore struct {
	bucket string
	prefix string
	s3     *s3.Client
}

func NewS3PlanStore(s3Client *s3.Client, bucket, prefix string) *S3PlanStore {
	return &S3PlanStore{bucket: bucket, prefix: prefix, s3: s3Client}
}

func (s *S3PlanStore) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get object %s from S3: %w", key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *S3PlanStore) put(ctx context.Context, key string, body []byte) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to S3: %w", key, err)
	}
	return nil
}

func (s *S3PlanStore) planKey(key string) string { return s.prefix + key + ".json" }

func (s *S3PlanStore) activeKey(householdID string) string {
	return s.prefix + "active/" + url.PathEscape(householdID)
}

func (s *S3PlanStore) FindByKey(ctx context.Context, key string) (horizon.PlanSet, error) {
	data, err := s.get(ctx, s.planKey(key))
	if err != nil {
		return horizon.PlanSet{}, err
	}
	return decodePlan(data)
}

func (s *S3PlanStore) FindActive(ctx context.Context, householdID string) (horizon.PlanSet, error) {
	key, err := s.get(ctx, s.activeKey(householdID))
	if err != nil {
		return horizon.PlanSet{}, err
	}
	return s.FindByKey(ctx, string(key))
}

func (s *S3PlanStore) Save(ctx context.Context, ps horizon.PlanSet) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := s.put(ctx, s.planKey(ps.StableKey), data); err != nil {
		return err
	}
	if ps.Status.Terminal() {
		return nil
	}
	return s.put(ctx, s.activeKey(ps.HouseholdID), []byte(ps.StableKey))
}
