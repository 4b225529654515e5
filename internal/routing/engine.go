package routing

import (
	"context"
	"log"
	"sync"

	"ai-mobility-planner/internal/schedule"
)

// DefaultWorkers bounds concurrent outbound route requests. The routing
// service is rate limited; ten in flight keeps total latency low without
// tripping it.
const DefaultWorkers = 10

// RouteFetcher is the outbound routing capability. geo.Client satisfies it.
type RouteFetcher interface {
	ComputeRoute(ctx context.Context, origin, destination schedule.POI, mode schedule.TravelMode) ([][]float64, error)
}

// Engine computes the meaningful inter-activity routes of daily plans. All
// issued requests are independent and run concurrently under a fixed worker
// bound; results land in pre-sized slices keyed by pair index, so completion
// order never affects output order.
type Engine struct {
	fetcher RouteFetcher
	workers int
}

// NewEngine creates an Engine with the given worker bound. A bound below one
// falls back to DefaultWorkers.
func NewEngine(fetcher RouteFetcher, workers int) *Engine {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Engine{fetcher: fetcher, workers: workers}
}

// routeJob is one dispatched route request, keyed to its originating day and
// entry-pair position.
type routeJob struct {
	day         int
	pairIndex   int
	origin      schedule.POI
	destination schedule.POI
	mode        schedule.TravelMode
	startMinute int
	endMinute   int
}

// ComputeDay computes the route segments for a single day's plan. The result
// has one slot per consecutive entry pair; skipped or failed legs stay nil.
func (e *Engine) ComputeDay(ctx context.Context, plan schedule.DailyPlan) []*schedule.RouteSegment {
	week := e.ComputeWeek(ctx, []schedule.DailyPlan{plan})
	return week[0]
}

// ComputeWeek computes route segments for every day at once. Requests across
// days are as independent as requests within a day, so they share one worker
// pool. A failed request is logged and its slot left nil; sibling requests
// are unaffected.
func (e *Engine) ComputeWeek(ctx context.Context, plans []schedule.DailyPlan) [][]*schedule.RouteSegment {
	results := make([][]*schedule.RouteSegment, len(plans))
	var jobs []routeJob
	for day, plan := range plans {
		if len(plan.Entries) > 1 {
			results[day] = make([]*schedule.RouteSegment, len(plan.Entries)-1)
		}
		jobs = append(jobs, buildJobs(day, plan)...)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for _, job := range jobs {
		wg.Add(1)
		go func(j routeJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			points, err := e.fetcher.ComputeRoute(ctx, j.origin, j.destination, j.mode)
			if err != nil {
				log.Printf("Warning: route fetch failed for day %d leg %d (%s -> %s): %v",
					j.day, j.pairIndex, j.origin.Name, j.destination.Name, err)
				return
			}

			// Each job owns exactly one slot, so no lock is needed.
			results[j.day][j.pairIndex] = &schedule.RouteSegment{
				OriginIndex:      j.pairIndex,
				DestinationIndex: j.pairIndex + 1,
				TravelMode:       j.mode,
				Points:           points,
				StartMinute:      j.startMinute,
				EndMinute:        j.endMinute,
			}
		}(job)
	}
	wg.Wait()

	return results
}

// buildJobs walks consecutive entry pairs and keeps the ones worth routing.
// The guards are cheap and order independent: a NONE arrival mode, an
// unresolved POI on either side, or two entries at the same place all mean
// there is nothing to route.
func buildJobs(day int, plan schedule.DailyPlan) []routeJob {
	var jobs []routeJob
	for i := 0; i+1 < len(plan.Entries); i++ {
		origin := plan.Entries[i]
		destination := plan.Entries[i+1]

		mode := destination.TravelMode
		if mode == schedule.ModeNone {
			continue
		}
		if origin.POI == nil || destination.POI == nil {
			continue
		}
		if origin.POI.Latitude == destination.POI.Latitude && origin.POI.Longitude == destination.POI.Longitude {
			continue
		}
		if origin.POI.Name == destination.POI.Name {
			continue
		}

		jobs = append(jobs, routeJob{
			day:         day,
			pairIndex:   i,
			origin:      *origin.POI,
			destination: *destination.POI,
			mode:        mode,
			startMinute: minuteOf(origin.Time),
			endMinute:   minuteOf(destination.Time),
		})
	}
	return jobs
}

func minuteOf(t string) int {
	m, err := schedule.MinutesSinceMidnight(t)
	if err != nil {
		log.Printf("Warning: %v", err)
		return 0
	}
	return m
}
