package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"text/template"
	"time"

	"ai-mobility-planner/internal/llm"
	"ai-mobility-planner/internal/schedule"
	"ai-mobility-planner/internal/shared"
)

//go:embed weekly_prompt.md
var weeklyPrompt string

//go:embed daily_prompt.md
var dailyPrompt string

// LLMPlanner implements GenerativePlanner on top of a text model. Prompts are
// rendered from embedded templates and the model is expected to answer with
// the JSON contract stated in each prompt.
type LLMPlanner struct {
	textGen llm.TextGenerator

	mu    sync.Mutex
	metas []shared.AgentMeta
}

// NewLLMPlanner creates an LLMPlanner backed by the given text generator.
func NewLLMPlanner(textGen llm.TextGenerator) *LLMPlanner {
	return &LLMPlanner{textGen: textGen}
}

// GenerateWeeklySummary asks the model for the seven-day narrative summary.
func (p *LLMPlanner) GenerateWeeklySummary(ctx context.Context, userDescription string) (schedule.WeeklySummary, error) {
	prompt, err := renderPrompt("weekly", weeklyPrompt, map[string]string{
		"UserDescription": userDescription,
	})
	if err != nil {
		return schedule.WeeklySummary{}, err
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return schedule.WeeklySummary{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	p.record("WeeklyPlanner", resp.Usage, time.Since(start))

	var weekly schedule.WeeklySummary
	if err := json.Unmarshal([]byte(resp.Content), &weekly); err != nil {
		return schedule.WeeklySummary{}, fmt.Errorf("failed to unmarshal weekly summary: %w. Response: %s", err, resp.Content)
	}
	return weekly, nil
}

// GenerateDailyPlan asks the model for one day's timed schedule driven by the
// day's agenda line.
func (p *LLMPlanner) GenerateDailyPlan(ctx context.Context, userDescription, dailyAgenda string) (schedule.DailyPlan, error) {
	prompt, err := renderPrompt("daily", dailyPrompt, map[string]string{
		"UserDescription": userDescription,
		"DailyAgenda":     dailyAgenda,
	})
	if err != nil {
		return schedule.DailyPlan{}, err
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return schedule.DailyPlan{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	p.record("DailyScheduler", resp.Usage, time.Since(start))

	var plan schedule.DailyPlan
	if err := json.Unmarshal([]byte(resp.Content), &plan); err != nil {
		return schedule.DailyPlan{}, fmt.Errorf("failed to unmarshal daily plan: %w. Response: %s", err, resp.Content)
	}
	if len(plan.Entries) == 0 {
		return schedule.DailyPlan{}, fmt.Errorf("daily plan has no entries")
	}
	return plan, nil
}

// DrainMetas returns the accumulated per-call metadata and resets the buffer.
func (p *LLMPlanner) DrainMetas() []shared.AgentMeta {
	p.mu.Lock()
	defer p.mu.Unlock()
	metas := p.metas
	p.metas = nil
	return metas
}

func (p *LLMPlanner) record(agentName string, usage shared.TokenUsage, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metas = append(p.metas, shared.AgentMeta{
		AgentName: agentName,
		Usage:     usage,
		Latency:   latency,
	})
}

func renderPrompt(name, text string, data map[string]string) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
