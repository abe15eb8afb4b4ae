package dinnerplanner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dinnerplanner/planner"
	"dinnerplanner/stability"
)

// PlanLogger records one entry per planning run.
type PlanLogger interface {
	LogRun(run PlanLog) error
}

// NewPlanLogFilePath returns a file path keyed by time and household so logs
// from different households are easy to tell apart.
func NewPlanLogFilePath(householdID string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(householdID), ":", "_"),
	)
}

// PlanLog is one planning run.
type PlanLog struct {
	Timestamp   time.Time            `json:"timestamp"`
	HouseholdID string               `json:"household_id"`
	StableKey   string               `json:"stable_key,omitempty"`
	PlanSetID   string               `json:"plan_set_id,omitempty"`
	Idempotent  bool                 `json:"idempotent"`
	Days        []DayLog             `json:"days,omitempty"`
	Traces      []planner.Trace      `json:"traces,omitempty"`
	Decisions   []stability.Decision `json:"stability_decisions,omitempty"`
	Superseded  string               `json:"superseded,omitempty"`
	Duration    time.Duration        `json:"duration_ns"`
	Error       string               `json:"error,omitempty"`
	ErrorKind   string               `json:"error_kind,omitempty"`
}

// DayLog is the short form of one planned day.
type DayLog struct {
	Date       string  `json:"date"`
	RecipeSlug string  `json:"recipe_slug"`
	Score      float64 `json:"score"`
	TieBreaker string  `json:"tie_breaker,omitempty"`
	Stability  string  `json:"stability,omitempty"`
}

// FilePlanLogger accumulates runs and writes them all on Flush.
type FilePlanLogger struct {
	runs   []PlanLog
	writer io.Writer
}

func NewFilePlanLogger(writer io.Writer) *FilePlanLogger {
	return &FilePlanLogger{
		runs:   make([]PlanLog, 0),
		writer: writer,
	}
}

func (l *FilePlanLogger) LogRun(run PlanLog) error {
	l.runs = append(l.runs, run)
	return nil
}

func (l *FilePlanLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"planning_session": map[string]any{
			"timestamp": time.Now(),
			"runs":      l.runs,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write plan log: %w", err)
	}

	l.runs = l.runs[:0]
	return nil
}

type NoOpPlanLogger struct{}

func NewNoOpPlanLogger() *NoOpPlanLogger { return &NoOpPlanLogger{} }

func (nop *NoOpPlanLogger) LogRun(run PlanLog) error { return nil }

// StdoutPlanLogger writes each run as a JSON line, for Lambda/CloudWatch.
type StdoutPlanLogger struct {
	w io.Writer
}

func NewStdoutPlanLogger() *StdoutPlanLogger { return &StdoutPlanLogger{w: os.Stdout} }

func (l *StdoutPlanLogger) LogRun(run PlanLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	fmt.Fprintln(l.w, string(data))
	return nil
}
