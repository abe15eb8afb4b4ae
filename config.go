package dinnerplanner

import (
	"time"

	"dinnerplanner/horizon"
	"dinnerplanner/planner"
	"dinnerplanner/scoring"
	"dinnerplanner/variety"
)

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=llama3.2"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=512"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type PlannerConfig struct {
	ArtifactsHouseholdsPath string  `env:"ARTIFACTS_HOUSEHOLDS_PATH,default=artifacts/households.json"`
	ArtifactsRecipesPath    string  `env:"ARTIFACTS_RECIPES_PATH,default=artifacts/recipes.json"`
	ArtifactsInventoryPath  string  `env:"ARTIFACTS_INVENTORY_PATH,default=artifacts/inventory.json"`
	ArtifactsCalendarPath   string  `env:"ARTIFACTS_CALENDAR_PATH,default=artifacts/calendar.json"`
	ArtifactsHistoryPath    string  `env:"ARTIFACTS_HISTORY_PATH,default=artifacts/history.json"`
	PlansDir                string  `env:"PLANS_DIR,default=plans"`
	StabilityBandPct        float64 `env:"STABILITY_BAND_PCT,default=10"`
	VarietyLookbackDays     int     `env:"VARIETY_LOOKBACK_DAYS,default=7"`
	MaxHorizonDays          int     `env:"MAX_HORIZON_DAYS,default=14"`
	HistoryLimit            int     `env:"HISTORY_LIMIT,default=50"`
	Narrator                string  `env:"NARRATOR,default=template"`
	BaseOllamaEndpoint      string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	SlackWebhookURL         string  `env:"SLACK_WEBHOOK_URL"`
	SlackChannel            string  `env:"SLACK_CHANNEL,default=#dinner"`
	Debug                   bool    `env:"PLANNER_DEBUG,default=false"`
	Instrumented            bool    `env:"PLANNER_OTEL,default=false"`
}

// WeightsConfig holds the scoring constants. They are fixed per process and
// echoed in every trace.
type WeightsConfig struct {
	WasteWeight           float64 `env:"WASTE_WEIGHT,default=1"`
	GroceryPenaltyPerItem float64 `env:"GROCERY_PENALTY_PER_ITEM,default=10"`
	TimePenaltyFactor     float64 `env:"TIME_PENALTY_FACTOR,default=0.2"`
}

func (w WeightsConfig) Weights() scoring.Weights {
	return scoring.Weights{
		Waste:          w.WasteWeight,
		GroceryPerItem: w.GroceryPenaltyPerItem,
		TimeFactor:     w.TimePenaltyFactor,
	}
}

type StorageConfig struct {
	S3Bucket      string        `env:"ARTIFACTS_S3_BUCKET"`
	HouseholdsKey string        `env:"ARTIFACTS_HOUSEHOLDS_S3_KEY,default=households.json"`
	RecipesKey    string        `env:"ARTIFACTS_RECIPES_S3_KEY,default=recipes.json"`
	InventoryKey  string        `env:"ARTIFACTS_INVENTORY_S3_KEY,default=inventory.json"`
	CalendarKey   string        `env:"ARTIFACTS_CALENDAR_S3_KEY,default=calendar.json"`
	HistoryKey    string        `env:"ARTIFACTS_HISTORY_S3_KEY,default=history.json"`
	PlansPrefix   string        `env:"PLANS_S3_PREFIX,default=plans/"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	PlanTTL       time.Duration `env:"PLAN_TTL,default=336h"`
}

// NewOrchestrator wires the planning engine from configuration.
func NewOrchestrator(pc PlannerConfig, wc WeightsConfig) *horizon.Orchestrator {
	vc := variety.DefaultConfig()
	if pc.VarietyLookbackDays > 0 {
		vc.LookbackDays = pc.VarietyLookbackDays
	}
	engine := variety.NewEngine(vc)
	return horizon.NewOrchestrator(planner.New(wc.Weights(), engine), engine, horizon.Options{
		MaxDays: pc.MaxHorizonDays,
		BandPct: pc.StabilityBandPct,
	})
}
