package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"

	"dinnerplanner"
	"dinnerplanner/coordinator"
	"dinnerplanner/coordinator/bedrock"
	"dinnerplanner/coordinator/ollama"
	"dinnerplanner/slack"
	"dinnerplanner/tools"
	"dinnerplanner/tools/storage"
)

const defaultInput = `{"household_id": "hh-1", "horizon": {"mode": "next_n_dinners", "n_dinners": 3}}`

func main() {
	ctx := context.Background()

	var modelConfig dinnerplanner.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var plannerConfig dinnerplanner.PlannerConfig
	if err := envdecode.Decode(&plannerConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var weightsConfig dinnerplanner.WeightsConfig
	if err := envdecode.Decode(&weightsConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	call := tools.Call{Name: argOr(1, "dinner_plan")}
	if err := json.Unmarshal([]byte(argOr(2, defaultInput)), &call.Input); err != nil {
		log.Fatalf("SETUP: Tool input is not a JSON object: %s", err)
	}

	src := storage.Sources{
		Households: storage.NewFileState(plannerConfig.ArtifactsHouseholdsPath),
		Recipes:    storage.NewFileState(plannerConfig.ArtifactsRecipesPath),
		Inventory:  storage.NewFileState(plannerConfig.ArtifactsInventoryPath),
		Calendar:   storage.NewFileState(plannerConfig.ArtifactsCalendarPath),
		History:    storage.NewFileState(plannerConfig.ArtifactsHistoryPath),
	}
	plans := storage.NewFilePlanStore(plannerConfig.PlansDir)

	narrator, err := newNarrator(ctx, plannerConfig, modelConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create narrator", "error", err)
		return
	}

	householdID, _ := call.Input["household_id"].(string)
	logger, cleanup, err := newPlanLogger(householdID)
	if err != nil {
		slog.Error("SETUP: Failed to create plan logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush plan log", "error", err)
		}
	}()

	coord := coordinator.New(src, plans, dinnerplanner.NewOrchestrator(plannerConfig, weightsConfig), coordinator.Options{
		HistoryLimit: plannerConfig.HistoryLimit,
		Narrator:     narrator,
		Logger:       logger,
	})

	var runner dinnerplanner.Coordinator = coord
	if plannerConfig.Instrumented {
		tracerProvider, meterProvider, otelShutdown, err := dinnerplanner.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		runner = coordinator.NewInstrumentedCoordinator(coord,
			tracerProvider.Tracer(dinnerplanner.TracerNamePlanner),
			meterProvider.Meter(dinnerplanner.TracerNamePlanner))
	}

	registry, err := tools.NewRegistry(src, runner, time.Now)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return
	}
	slog.Info("SETUP: Planner ready", "tool", call.Name, "narrator", plannerConfig.Narrator, "plans_dir", plannerConfig.PlansDir)

	output, err := registry.Dispatch(ctx, call)
	if err != nil {
		slog.Error("FAILURE: Error handling tool call", "tool", call.Name, "error", err)
		return
	}

	if plannerConfig.Debug {
		dinnerplanner.Dump(output)
	}

	out, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		slog.Error("FAILURE: Failed to encode output", "error", err)
		return
	}
	fmt.Println(string(out))

	if call.Name == "dinner_plan" && plannerConfig.SlackWebhookURL != "" {
		postPlan(ctx, plannerConfig, output)
	}
}

func postPlan(ctx context.Context, cfg dinnerplanner.PlannerConfig, output map[string]any) {
	res, err := tools.PlanResultFromOutput(output)
	if err != nil {
		slog.Warn("Failed to decode plan for Slack", "error", err)
		return
	}
	if err := slack.NewClient(cfg.SlackWebhookURL, http.DefaultClient).PostPlan(ctx, cfg.SlackChannel, res); err != nil {
		slog.Warn("Failed to post plan to Slack", "error", err)
	}
}

func newNarrator(ctx context.Context, pc dinnerplanner.PlannerConfig, mc dinnerplanner.ModelConfig) (dinnerplanner.Narrator, error) {
	switch pc.Narrator {
	case "", "template":
		return coordinator.TemplateNarrator{}, nil
	case "ollama":
		n, err := ollama.NewNarrator(ollama.NarratorOpts{
			BaseEndpoint: pc.BaseOllamaEndpoint,
			ModelID:      mc.ModelID,
			HTTPClient:   http.DefaultClient,
			Temperature:  float64(mc.Temperature),
			MaxTokens:    int(mc.MaxTokens),
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	case "bedrock":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, err
		}
		return bedrock.NewNarrator(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     mc.ModelID,
			MaxTokens:   mc.MaxTokens,
			Temperature: mc.Temperature,
			TopP:        mc.TopP,
		}), nil
	default:
		return nil, fmt.Errorf("unknown narrator %q", pc.Narrator)
	}
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newPlanLogger(householdID string) (dinnerplanner.PlanLogger, func() error, error) {
	if err := os.MkdirAll("./logs", 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFilePath := dinnerplanner.NewPlanLogFilePath(householdID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := dinnerplanner.NewFilePlanLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
