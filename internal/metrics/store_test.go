package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"ai-mobility-planner/internal/database"
	"ai-mobility-planner/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestRecordAndGetDailyUsage(t *testing.T) {
	store := newTestStore(t)

	metricsToRecord := []ExecutionMetric{
		{AgentName: "WeeklyPlanner", Model: "test-model", PromptTokens: 200, CompletionTokens: 150, LatencyMS: 900},
		{AgentName: "DailyScheduler", Model: "test-model", PromptTokens: 120, CompletionTokens: 60, LatencyMS: 400},
	}
	for _, m := range metricsToRecord {
		if err := store.Record(m); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	usage, err := store.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected usage for 1 day, got %d", len(usage))
	}
	if usage[0].TotalExecution != 2 {
		t.Errorf("Expected 2 executions, got %d", usage[0].TotalExecution)
	}
	if usage[0].TotalPrompt != 320 || usage[0].TotalCompletion != 210 {
		t.Errorf("Unexpected token totals: %d prompt, %d completion", usage[0].TotalPrompt, usage[0].TotalCompletion)
	}
}

func TestRecordMetaSkipsEmptyUsage(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordMeta(shared.AgentMeta{AgentName: "WeeklyPlanner"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	usage, err := store.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 0 {
		t.Errorf("Expected no rows for zero-token meta, got %d", len(usage))
	}

	meta := shared.AgentMeta{
		AgentName: "DailyScheduler",
		Usage:     shared.TokenUsage{PromptTokens: 50, CompletionTokens: 25, Model: "test-model"},
		Latency:   750 * time.Millisecond,
	}
	if err := store.RecordMeta(meta); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	usage, err = store.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 1 {
		t.Fatalf("Expected 1 recorded execution, got %+v", usage)
	}
}

func TestCleanup(t *testing.T) {
	store := newTestStore(t)

	old := ExecutionMetric{AgentName: "WeeklyPlanner", Model: "test-model", PromptTokens: 10,
		Timestamp: time.Now().AddDate(0, 0, -40)}
	recent := ExecutionMetric{AgentName: "WeeklyPlanner", Model: "test-model", PromptTokens: 10}
	if err := store.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(recent); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	deleted, err := store.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}
}
