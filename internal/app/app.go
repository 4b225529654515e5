package app

import (
	"context"
	"fmt"
	"log"

	"ai-mobility-planner/internal/geo"
	"ai-mobility-planner/internal/metrics"
	"ai-mobility-planner/internal/planner"
	"ai-mobility-planner/internal/routing"
	"ai-mobility-planner/internal/trace"

	"github.com/google/uuid"
)

// App wires the planning pipeline: generative planning, POI resolution,
// route computation, trace assembly and persistence.
type App struct {
	planner      *planner.Planner
	llmPlanner   *planner.LLMPlanner
	resolver     *geo.Resolver
	engine       *routing.Engine
	traceRepo    *trace.Repository
	metricsStore *metrics.Store
}

// NewApp creates and initializes a new App instance.
func NewApp(
	pl *planner.Planner,
	llmPlanner *planner.LLMPlanner,
	resolver *geo.Resolver,
	engine *routing.Engine,
	traceRepo *trace.Repository,
	metricsStore *metrics.Store,
) *App {
	return &App{
		planner:      pl,
		llmPlanner:   llmPlanner,
		resolver:     resolver,
		engine:       engine,
		traceRepo:    traceRepo,
		metricsStore: metricsStore,
	}
}

// GenerateTrace runs the whole pipeline for a fresh user description and
// returns the assembled mobility trace.
func (a *App) GenerateTrace(ctx context.Context, userID, userDescription string) (*trace.MobilityTrace, error) {
	state := &planner.State{
		RunID:           uuid.NewString(),
		UserDescription: userDescription,
	}
	return a.GenerateFromState(ctx, userID, state)
}

// ResumeTrace continues a previously failed run from its stored snapshot.
func (a *App) ResumeTrace(ctx context.Context, userID, runID string) (*trace.MobilityTrace, error) {
	state, err := a.traceRepo.LoadSnapshot(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no snapshot found for run %s", runID)
	}
	return a.GenerateFromState(ctx, userID, state)
}

// GenerateFromState drives the pipeline from an explicit planner state,
// which may carry partial plans from an earlier attempt. A generation
// failure snapshots the partial state under its run ID before surfacing the
// error so the run stays resumable.
func (a *App) GenerateFromState(ctx context.Context, userID string, state *planner.State) (*trace.MobilityTrace, error) {
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}

	runErr := a.planner.Run(ctx, state)
	a.recordPlannerMetrics()
	if runErr != nil {
		if err := a.traceRepo.SaveSnapshot(ctx, userID, state); err != nil {
			log.Printf("Warning: failed to snapshot run %s: %v", state.RunID, err)
		}
		return nil, fmt.Errorf("run %s aborted after day %d: %w", state.RunID, state.CurrentDayIndex, runErr)
	}

	for i := range state.Plans {
		if err := a.resolver.ResolvePlan(ctx, &state.Plans[i]); err != nil {
			return nil, fmt.Errorf("resolution cancelled: %w", err)
		}
	}

	segments := a.engine.ComputeWeek(ctx, state.Plans)

	mt, err := trace.Assemble(state.RunID, state.UserDescription, state.WeeklyPlan, state.Plans, segments)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble trace: %w", err)
	}

	if _, err := a.traceRepo.Save(ctx, userID, mt); err != nil {
		log.Printf("Warning: failed to save trace for run %s: %v", mt.RunID, err)
	}
	if err := a.traceRepo.DeleteSnapshot(ctx, mt.RunID); err != nil {
		log.Printf("Warning: failed to delete snapshot for run %s: %v", mt.RunID, err)
	}

	return mt, nil
}

// PrintTrace writes a human-readable weekly overview to stdout.
func (a *App) PrintTrace(mt *trace.MobilityTrace) {
	fmt.Println("\n=== WEEKLY MOBILITY TRACE ===")
	for _, day := range mt.Days {
		fmt.Printf("\n%s\n", day.Day)
		routed := 0
		for _, seg := range day.Segments {
			if seg != nil {
				routed++
			}
		}
		for _, entry := range day.Plan.Entries {
			place := entry.Location
			if entry.POI != nil {
				place = entry.POI.Name
			}
			fmt.Printf("  %s  %-40s %s\n", entry.Time, entry.Action, place)
		}
		fmt.Printf("  (%d of %d legs routed)\n", routed, maxInt(len(day.Plan.Entries)-1, 0))
	}
}

func (a *App) recordPlannerMetrics() {
	if a.llmPlanner == nil || a.metricsStore == nil {
		return
	}
	for _, meta := range a.llmPlanner.DrainMetas() {
		if err := a.metricsStore.RecordMeta(meta); err != nil {
			log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
