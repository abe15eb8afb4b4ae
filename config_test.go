package dinnerplanner

import (
	"testing"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerplanner/scoring"
)

func TestConfig_Defaults(t *testing.T) {
	var pc PlannerConfig
	require.NoError(t, envdecode.Decode(&pc))
	assert.Equal(t, 10.0, pc.StabilityBandPct)
	assert.Equal(t, 7, pc.VarietyLookbackDays)
	assert.Equal(t, 14, pc.MaxHorizonDays)
	assert.Equal(t, 50, pc.HistoryLimit)
	assert.Equal(t, "template", pc.Narrator)

	var wc WeightsConfig
	require.NoError(t, envdecode.Decode(&wc))
	assert.Equal(t, scoring.DefaultWeights(), wc.Weights())

	var sc StorageConfig
	require.NoError(t, envdecode.Decode(&sc))
	assert.Equal(t, 14*24*time.Hour, sc.PlanTTL)
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("STABILITY_BAND_PCT", "5")
	t.Setenv("GROCERY_PENALTY_PER_ITEM", "4.5")

	var pc PlannerConfig
	require.NoError(t, envdecode.Decode(&pc))
	assert.Equal(t, 5.0, pc.StabilityBandPct)

	var wc WeightsConfig
	require.NoError(t, envdecode.Decode(&wc))
	assert.Equal(t, 4.5, wc.Weights().GroceryPerItem)

	o := NewOrchestrator(pc, wc)
	assert.Equal(t, wc.Weights(), o.Weights())
}
