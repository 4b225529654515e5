package planner

import (
	"context"
	"fmt"

	"ai-mobility-planner/internal/schedule"
)

// GenerativePlanner is the external generation capability the state machine
// drives. Both calls may fail transiently or permanently; the pipeline treats
// the two classes identically and aborts the run keeping partial state.
type GenerativePlanner interface {
	GenerateWeeklySummary(ctx context.Context, userDescription string) (schedule.WeeklySummary, error)
	GenerateDailyPlan(ctx context.Context, userDescription, dailyAgenda string) (schedule.DailyPlan, error)
}

// State is the authoritative mutable state of one planning run. It is created
// once per request, threaded through every step, and discarded after the
// mobility trace is assembled. Plans is append-only and its length always
// equals CurrentDayIndex.
type State struct {
	RunID            string                 `json:"run_id"`
	UserDescription  string                 `json:"user_description"`
	WeeklyPlan       schedule.WeeklySummary `json:"weekly_plan"`
	CurrentDayIndex  int                    `json:"current_day_index"`
	CurrentDayAgenda string                 `json:"current_day_agenda"`
	Plans            []schedule.DailyPlan   `json:"plans"`
}

// Complete reports whether all seven daily plans have been generated.
func (s *State) Complete() bool {
	return s.CurrentDayIndex >= schedule.DaysInWeek && len(s.Plans) == schedule.DaysInWeek
}

// GenerationError marks a fatal generation failure. Day is the 0-based index
// of the failed daily-plan step, or -1 when the weekly summary failed. The
// run's partial state stays valid so the caller can resume from
// CurrentDayIndex.
type GenerationError struct {
	Day int
	Err error
}

func (e *GenerationError) Error() string {
	if e.Day < 0 {
		return fmt.Sprintf("weekly summary generation failed: %v", e.Err)
	}
	return fmt.Sprintf("daily plan generation failed for day %d: %v", e.Day, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Planner drives the week-long planning loop over an injected generative
// capability.
type Planner struct {
	gen GenerativePlanner
}

// NewPlanner creates a new Planner instance.
func NewPlanner(gen GenerativePlanner) *Planner {
	return &Planner{gen: gen}
}

// Run advances the state machine to completion: one weekly summary call, then
// seven strictly sequential daily-plan calls. A fresh state starts at the
// weekly summary; a resumed state (weekly plan present, CurrentDayIndex > 0)
// continues from where it stopped. On failure the state keeps every durably
// appended plan and the returned error carries the failed day.
func (p *Planner) Run(ctx context.Context, state *State) error {
	if len(state.Plans) != state.CurrentDayIndex {
		return fmt.Errorf("inconsistent state: %d plans for day index %d", len(state.Plans), state.CurrentDayIndex)
	}

	if len(state.WeeklyPlan.Days) == 0 {
		weekly, err := p.gen.GenerateWeeklySummary(ctx, state.UserDescription)
		if err != nil {
			return &GenerationError{Day: -1, Err: err}
		}
		if err := weekly.Validate(); err != nil {
			return &GenerationError{Day: -1, Err: err}
		}
		// CurrentDayIndex already equals len(Plans); a fresh run starts
		// at 0, a resumed run without a stored summary picks up where
		// its plans stop.
		state.WeeklyPlan = weekly
	} else if err := state.WeeklyPlan.Validate(); err != nil {
		return fmt.Errorf("resumed state has invalid weekly plan: %w", err)
	}

	for !state.Complete() {
		day := state.CurrentDayIndex
		agenda := state.WeeklyPlan.Days[day].Summary

		plan, err := p.gen.GenerateDailyPlan(ctx, state.UserDescription, agenda)
		if err != nil {
			return &GenerationError{Day: day, Err: err}
		}
		plan.SortEntries()

		// Append before incrementing so a retry after failure never
		// skips a day.
		state.Plans = append(state.Plans, plan)
		state.CurrentDayIndex = day + 1
		state.CurrentDayAgenda = agenda
	}

	return nil
}
