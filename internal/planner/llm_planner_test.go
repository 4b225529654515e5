package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-mobility-planner/internal/llm"
	"ai-mobility-planner/internal/shared"
)

type mockTextGenerator struct {
	calls int
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++

	// The daily prompt carries the agenda block; the weekly one does not.
	if strings.Contains(prompt, "<Today's Plan>") {
		return llm.ContentResponse{
			Content: `{"entries": [
				{"time": "08:30", "action": "Commute", "poi_category": "Train Station", "location": "Stratford Station, London", "travel_mode": "TRANSIT"},
				{"time": "07:00", "action": "Wake Up", "poi_category": "Home", "location": "Stratford, London", "travel_mode": "NONE"}
			]}`,
			Usage: shared.TokenUsage{PromptTokens: 120, CompletionTokens: 60, Model: "test-model"},
		}, nil
	}

	return llm.ContentResponse{
		Content: `{"days": [
			{"day": "Monday", "summary": "Work in the office"},
			{"day": "Tuesday", "summary": "Work from home"},
			{"day": "Wednesday", "summary": "Work in the office, gym after work"},
			{"day": "Thursday", "summary": "Work from home"},
			{"day": "Friday", "summary": "Work in the office, dinner with friends"},
			{"day": "Saturday", "summary": "Groceries and a park visit"},
			{"day": "Sunday", "summary": "Rest day and meal prep"}
		]}`,
		Usage: shared.TokenUsage{PromptTokens: 200, CompletionTokens: 150, Model: "test-model"},
	}, nil
}

func TestGenerateWeeklySummary(t *testing.T) {
	gen := &mockTextGenerator{}
	p := NewLLMPlanner(gen)

	weekly, err := p.GenerateWeeklySummary(context.Background(), "software engineer in Stratford, works in West Kensington")
	if err != nil {
		t.Fatalf("GenerateWeeklySummary failed: %v", err)
	}
	if err := weekly.Validate(); err != nil {
		t.Errorf("Weekly summary invalid: %v", err)
	}
	if weekly.Days[0].Summary != "Work in the office" {
		t.Errorf("Unexpected Monday summary: %q", weekly.Days[0].Summary)
	}

	metas := p.DrainMetas()
	if len(metas) != 1 {
		t.Fatalf("Expected 1 meta entry, got %d", len(metas))
	}
	if metas[0].AgentName != "WeeklyPlanner" {
		t.Errorf("Expected agent WeeklyPlanner, got %s", metas[0].AgentName)
	}
	if metas[0].Usage.PromptTokens != 200 {
		t.Errorf("Expected 200 prompt tokens, got %d", metas[0].Usage.PromptTokens)
	}
}

func TestGenerateDailyPlan(t *testing.T) {
	gen := &mockTextGenerator{}
	p := NewLLMPlanner(gen)

	plan, err := p.GenerateDailyPlan(context.Background(), "software engineer", "Work in the office")
	if err != nil {
		t.Fatalf("GenerateDailyPlan failed: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(plan.Entries))
	}
	if plan.Entries[0].POICategory != "Train Station" {
		t.Errorf("Unexpected first entry category: %q", plan.Entries[0].POICategory)
	}

	metas := p.DrainMetas()
	if len(metas) != 1 || metas[0].AgentName != "DailyScheduler" {
		t.Fatalf("Expected 1 DailyScheduler meta, got %+v", metas)
	}
}

type badJSONGenerator struct{}

func (badJSONGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: "I cannot help with that."}, nil
}

type failingGenerator struct{}

func (failingGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	return llm.ContentResponse{}, errors.New("rate limited")
}

func TestGenerateErrors(t *testing.T) {
	t.Run("MalformedJSON", func(t *testing.T) {
		p := NewLLMPlanner(badJSONGenerator{})
		if _, err := p.GenerateWeeklySummary(context.Background(), "anyone"); err == nil {
			t.Error("Expected error for malformed weekly JSON, got nil")
		}
		if _, err := p.GenerateDailyPlan(context.Background(), "anyone", "agenda"); err == nil {
			t.Error("Expected error for malformed daily JSON, got nil")
		}
	})

	t.Run("TransportError", func(t *testing.T) {
		p := NewLLMPlanner(failingGenerator{})
		if _, err := p.GenerateWeeklySummary(context.Background(), "anyone"); err == nil {
			t.Error("Expected error for failing generator, got nil")
		}
	})
}
