package trace

import (
	"fmt"

	"ai-mobility-planner/internal/schedule"
)

// TraceEntry is one flat, day-tagged row of the final trace, suitable for
// rendering or export. POI fields stay nil for unresolved entries; that is a
// valid, not degraded, result.
type TraceEntry struct {
	Day         schedule.DayOfWeek  `json:"day"`
	Time        string              `json:"time"`
	Minute      int                 `json:"minute"`
	Action      string              `json:"action"`
	POICategory string              `json:"poi_category"`
	Location    string              `json:"location"`
	TravelMode  schedule.TravelMode `json:"travel_mode"`
	POI         *schedule.POI       `json:"poi,omitempty"`
}

// DayTrace pairs one day's plan with its computed route segments. A nil
// segment slot means the leg was skipped or its route request failed.
type DayTrace struct {
	Day      schedule.DayOfWeek        `json:"day"`
	Plan     schedule.DailyPlan        `json:"plan"`
	Segments []*schedule.RouteSegment  `json:"segments"`
}

// MobilityTrace is the final aggregate of a planning run. Read-only once
// assembled.
type MobilityTrace struct {
	RunID           string                 `json:"run_id"`
	UserDescription string                 `json:"user_description"`
	WeeklyPlan      schedule.WeeklySummary `json:"weekly_plan"`
	Days            []DayTrace             `json:"days"`
	Entries         []TraceEntry           `json:"entries"`
}

// Assemble merges the completed plans with their route segments into one
// mobility trace. It performs no network or generative calls; an error here
// means an upstream invariant was violated, not a runtime condition to
// recover from.
func Assemble(runID, userDescription string, weekly schedule.WeeklySummary, plans []schedule.DailyPlan, segments [][]*schedule.RouteSegment) (*MobilityTrace, error) {
	if err := weekly.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weekly plan: %w", err)
	}
	if len(plans) != schedule.DaysInWeek {
		return nil, fmt.Errorf("expected %d daily plans, got %d", schedule.DaysInWeek, len(plans))
	}
	if len(segments) != len(plans) {
		return nil, fmt.Errorf("expected %d segment lists, got %d", len(plans), len(segments))
	}

	mt := &MobilityTrace{
		RunID:           runID,
		UserDescription: userDescription,
		WeeklyPlan:      weekly,
		Days:            make([]DayTrace, 0, schedule.DaysInWeek),
	}

	for i, plan := range plans {
		day, err := schedule.DayFor(i)
		if err != nil {
			return nil, err
		}

		mt.Days = append(mt.Days, DayTrace{
			Day:      day,
			Plan:     plan,
			Segments: segments[i],
		})

		for _, entry := range plan.Entries {
			minute, err := schedule.MinutesSinceMidnight(entry.Time)
			if err != nil {
				minute = 0
			}
			mt.Entries = append(mt.Entries, TraceEntry{
				Day:         day,
				Time:        entry.Time,
				Minute:      minute,
				Action:      entry.Action,
				POICategory: entry.POICategory,
				Location:    entry.Location,
				TravelMode:  entry.TravelMode,
				POI:         entry.POI,
			})
		}
	}

	return mt, nil
}
