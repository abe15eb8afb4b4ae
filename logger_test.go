package dinnerplanner

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePlanLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilePlanLogger(&buf)

	require.NoError(t, logger.LogRun(PlanLog{HouseholdID: "hh-1", StableKey: "k1", Days: []DayLog{{Date: "2025-03-10", RecipeSlug: "soup"}}}))
	require.NoError(t, logger.LogRun(PlanLog{HouseholdID: "hh-1", Error: "boom", ErrorKind: "internal"}))
	assert.Zero(t, buf.Len(), "nothing is written before Flush")

	require.NoError(t, logger.Flush())

	var doc struct {
		Session struct {
			Runs []PlanLog `json:"runs"`
		} `json:"planning_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Session.Runs, 2)
	assert.Equal(t, "soup", doc.Session.Runs[0].Days[0].RecipeSlug)
	assert.Equal(t, "internal", doc.Session.Runs[1].ErrorKind)

	buf.Reset()
	require.NoError(t, logger.Flush())
	assert.Contains(t, buf.String(), `"runs": []`, "buffer is cleared after a flush")
}

func TestFilePlanLogger_NilWriter(t *testing.T) {
	logger := NewFilePlanLogger(nil)
	require.NoError(t, logger.LogRun(PlanLog{}))
	assert.NoError(t, logger.Flush())
}

func TestStdoutPlanLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutPlanLogger{w: &buf}

	require.NoError(t, logger.LogRun(PlanLog{HouseholdID: "hh-1", Idempotent: true, Duration: time.Second}))
	require.NoError(t, logger.LogRun(PlanLog{HouseholdID: "hh-2"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first PlanLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.True(t, first.Idempotent)
	assert.Equal(t, time.Second, first.Duration)
}

func TestNewPlanLogFilePath(t *testing.T) {
	p := NewPlanLogFilePath("HH:1")
	assert.True(t, strings.HasPrefix(p, "./logs/"))
	assert.True(t, strings.HasSuffix(p, ".hh_1.json"))
}
