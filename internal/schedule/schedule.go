package schedule

import (
	"fmt"
	"sort"
)

// DayOfWeek is a canonical day label used both for ordering and lookup.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// DaysInWeek is the fixed length of every weekly plan.
const DaysInWeek = 7

// Days returns the days of the week in canonical Monday..Sunday order.
func Days() [DaysInWeek]DayOfWeek {
	return [DaysInWeek]DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// DayFor maps a 0-based day index to its day of week.
func DayFor(index int) (DayOfWeek, error) {
	if index < 0 || index >= DaysInWeek {
		return "", fmt.Errorf("day index %d out of range", index)
	}
	return Days()[index], nil
}

// Index returns the 0-based position of the day in the week, or -1 if the
// label is not a valid day.
func (d DayOfWeek) Index() int {
	for i, day := range Days() {
		if day == d {
			return i
		}
	}
	return -1
}

// TravelMode describes how the traveler arrives at a schedule entry.
// The literals match the Google Routes API travelMode field.
type TravelMode string

const (
	ModeNone        TravelMode = "NONE"
	ModeWalk        TravelMode = "WALK"
	ModeBicycle     TravelMode = "BICYCLE"
	ModeDrive       TravelMode = "DRIVE"
	ModeTransit     TravelMode = "TRANSIT"
	ModeUnspecified TravelMode = "TRAVEL_MODE_UNSPECIFIED"
)

// POI is a resolved, geocoded place. Immutable once created.
type POI struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// ScheduleEntry is a single timed activity within a day. POI stays nil until
// resolution succeeds; routing skips legs that touch unresolved entries.
type ScheduleEntry struct {
	Time        string     `json:"time"`
	Action      string     `json:"action"`
	POICategory string     `json:"poi_category"`
	Location    string     `json:"location"`
	TravelMode  TravelMode `json:"travel_mode"`
	POI         *POI       `json:"poi,omitempty"`
}

// DailyPlan is the ordered set of activities for one day.
type DailyPlan struct {
	Entries []ScheduleEntry `json:"entries"`
}

// SortEntries orders the plan's entries by time of day ascending. HH:MM in
// 24-hour format sorts correctly as a string.
func (p *DailyPlan) SortEntries() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		return p.Entries[i].Time < p.Entries[j].Time
	})
}

// DaySummary is the one-line agenda for a single day of the week.
type DaySummary struct {
	Day     DayOfWeek `json:"day"`
	Summary string    `json:"summary"`
}

// WeeklySummary is the week-level narrative: one summary per day, in
// canonical Monday..Sunday order.
type WeeklySummary struct {
	Days []DaySummary `json:"days"`
}

// Validate checks the weekly summary invariant: exactly one entry per day of
// week, days in Monday..Sunday order.
func (w WeeklySummary) Validate() error {
	if len(w.Days) != DaysInWeek {
		return fmt.Errorf("weekly summary has %d days, want %d", len(w.Days), DaysInWeek)
	}
	for i, d := range w.Days {
		if want := Days()[i]; d.Day != want {
			return fmt.Errorf("weekly summary day %d is %q, want %q", i, d.Day, want)
		}
	}
	return nil
}

// RouteSegment is the computed travel geometry between two consecutive
// entries of a day. Points are [longitude, latitude] pairs decoded from the
// provider polyline. Created once and never mutated.
type RouteSegment struct {
	OriginIndex      int         `json:"origin_index"`
	DestinationIndex int         `json:"destination_index"`
	TravelMode       TravelMode  `json:"travel_mode"`
	Points           [][]float64 `json:"points"`
	StartMinute      int         `json:"start_minute"`
	EndMinute        int         `json:"end_minute"`
}

// MinutesSinceMidnight converts an HH:MM 24-hour time of day to minutes
// since midnight.
func MinutesSinceMidnight(t string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(t, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", t, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", t)
	}
	return hh*60 + mm, nil
}
