package geo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"ai-mobility-planner/internal/schedule"
)

// Resolver resolves free-text locations from schedule entries into geocoded
// POIs. Results are memoized per run so resolving the same location and
// category twice yields the same POI without a second lookup.
type Resolver struct {
	client Client

	mu    sync.Mutex
	cache map[string]*schedule.POI
}

// NewResolver creates a new Resolver backed by the given geocoding client.
func NewResolver(client Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]*schedule.POI),
	}
}

// Resolve geocodes a free-text location plus coarse category into a POI.
// Returns ErrNotFound when the service has no candidates; that is non-fatal
// for the pipeline, the entry's POI simply stays absent.
func (r *Resolver) Resolve(ctx context.Context, location, category string) (*schedule.POI, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrNotFound)
	}

	query := location
	if category != "" {
		query = fmt.Sprintf("%s, %s", category, location)
	}

	r.mu.Lock()
	cached, seen := r.cache[query]
	r.mu.Unlock()
	if seen {
		if cached == nil {
			return nil, fmt.Errorf("%w for %q", ErrNotFound, query)
		}
		return cached, nil
	}

	poi, err := r.client.FindPlace(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.remember(query, nil)
		}
		return nil, err
	}

	r.remember(query, &poi)
	return &poi, nil
}

// ResolvePlan fills in the POI field of every entry in the plan. Resolution
// misses are logged and left absent; only context cancellation aborts.
func (r *Resolver) ResolvePlan(ctx context.Context, plan *schedule.DailyPlan) error {
	for i := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := &plan.Entries[i]
		poi, err := r.Resolve(ctx, entry.Location, entry.POICategory)
		if err != nil {
			log.Printf("Warning: could not resolve %q (%s): %v", entry.Location, entry.POICategory, err)
			continue
		}
		entry.POI = poi
	}
	return nil
}

func (r *Resolver) remember(query string, poi *schedule.POI) {
	r.mu.Lock()
	r.cache[query] = poi
	r.mu.Unlock()
}
