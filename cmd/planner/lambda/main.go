package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"dinnerplanner"
	"dinnerplanner/coordinator"
	"dinnerplanner/coordinator/bedrock"
	"dinnerplanner/slack"
	"dinnerplanner/tools"
	"dinnerplanner/tools/storage"
)

type Results struct {
	Output any `json:"output"`
}

func main() {
	fn := func(ctx context.Context, call tools.Call) (Results, error) {
		var modelConfig dinnerplanner.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode model config: %w", err)
		}

		var plannerConfig dinnerplanner.PlannerConfig
		if err := envdecode.Decode(&plannerConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode planner config: %w", err)
		}

		var weightsConfig dinnerplanner.WeightsConfig
		if err := envdecode.Decode(&weightsConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode weights config: %w", err)
		}

		var storageConfig dinnerplanner.StorageConfig
		if err := envdecode.Decode(&storageConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode storage config: %w", err)
		}
		if storageConfig.S3Bucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		bucket := storageConfig.S3Bucket
		src := storage.Sources{
			Households: storage.NewS3State(s3Client, bucket, storageConfig.HouseholdsKey),
			Recipes:    storage.NewS3State(s3Client, bucket, storageConfig.RecipesKey),
			Inventory:  storage.NewS3State(s3Client, bucket, storageConfig.InventoryKey),
			Calendar:   storage.NewS3State(s3Client, bucket, storageConfig.CalendarKey),
			History:    storage.NewS3State(s3Client, bucket, storageConfig.HistoryKey),
		}
		slog.Info("SETUP: S3 provider sources initialized", "bucket", bucket)

		var plans storage.PlanStore
		if storageConfig.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: storageConfig.RedisAddr})
			defer rdb.Close()
			plans = storage.NewRedisPlanStore(rdb, storageConfig.PlanTTL)
			slog.Info("SETUP: Redis plan store", "addr", storageConfig.RedisAddr, "ttl", storageConfig.PlanTTL)
		} else {
			plans = storage.NewS3PlanStore(s3Client, bucket, storageConfig.PlansPrefix)
			slog.Info("SETUP: S3 plan store", "prefix", storageConfig.PlansPrefix)
		}

		var narrator dinnerplanner.Narrator = coordinator.TemplateNarrator{}
		if plannerConfig.Narrator == "bedrock" {
			narrator = bedrock.NewNarrator(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
				ModelID:     modelConfig.ModelID,
				MaxTokens:   modelConfig.MaxTokens,
				Temperature: modelConfig.Temperature,
				TopP:        modelConfig.TopP,
			})
		}

		tracerProvider, meterProvider, otelShutdown, err := dinnerplanner.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		coord := coordinator.NewInstrumentedCoordinator(
			coordinator.New(src, plans, dinnerplanner.NewOrchestrator(plannerConfig, weightsConfig), coordinator.Options{
				HistoryLimit: plannerConfig.HistoryLimit,
				Narrator:     narrator,
				Logger:       dinnerplanner.NewStdoutPlanLogger(),
			}),
			tracerProvider.Tracer(dinnerplanner.TracerNamePlanner),
			meterProvider.Meter(dinnerplanner.TracerNamePlanner),
		)

		registry, err := tools.NewRegistry(src, coord, time.Now)
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}

		output, err := registry.Dispatch(ctx, call)
		if err != nil {
			slog.Error("RESULT: Error handling tool call", "tool", call.Name, "error", err)
			return Results{}, err
		}

		if call.Name == "dinner_plan" && plannerConfig.SlackWebhookURL != "" {
			res, err := tools.PlanResultFromOutput(output)
			if err != nil {
				slog.Warn("RESULT: Failed to decode plan for Slack", "error", err)
			} else {
				client := slack.NewClient(plannerConfig.SlackWebhookURL, http.DefaultClient)
				if err := client.PostPlan(ctx, plannerConfig.SlackChannel, res); err != nil {
					slog.Warn("RESULT: Failed to post plan to Slack", "error", err)
				}
			}
		}

		return Results{Output: output}, nil
	}

	lambda.Start(fn)
}
