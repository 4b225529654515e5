package schedule

import (
	"testing"
)

func TestMinutesSinceMidnight(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"09:15", 555, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := MinutesSinceMidnight(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("MinutesSinceMidnight(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("MinutesSinceMidnight(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("MinutesSinceMidnight(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestWeeklySummaryValidate(t *testing.T) {
	valid := WeeklySummary{}
	for _, d := range Days() {
		valid.Days = append(valid.Days, DaySummary{Day: d, Summary: "busy"})
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid summary, got %v", err)
	}

	short := WeeklySummary{Days: valid.Days[:6]}
	if err := short.Validate(); err == nil {
		t.Error("Expected error for 6-day summary, got nil")
	}

	swapped := WeeklySummary{Days: append([]DaySummary{}, valid.Days...)}
	swapped.Days[0], swapped.Days[1] = swapped.Days[1], swapped.Days[0]
	if err := swapped.Validate(); err == nil {
		t.Error("Expected error for out-of-order days, got nil")
	}
}

func TestDayForAndIndex(t *testing.T) {
	for i, want := range Days() {
		got, err := DayFor(i)
		if err != nil {
			t.Fatalf("DayFor(%d): unexpected error %v", i, err)
		}
		if got != want {
			t.Errorf("DayFor(%d) = %s, want %s", i, got, want)
		}
		if got.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", got, got.Index(), i)
		}
	}

	if _, err := DayFor(7); err == nil {
		t.Error("Expected error for day index 7, got nil")
	}
	if DayOfWeek("Funday").Index() != -1 {
		t.Error("Expected -1 for unknown day")
	}
}

func TestSortEntries(t *testing.T) {
	plan := DailyPlan{Entries: []ScheduleEntry{
		{Time: "12:30", Action: "Lunch"},
		{Time: "07:00", Action: "Wake Up"},
		{Time: "08:30", Action: "Commute"},
	}}
	plan.SortEntries()

	want := []string{"07:00", "08:30", "12:30"}
	for i, w := range want {
		if plan.Entries[i].Time != w {
			t.Errorf("Entry %d time = %s, want %s", i, plan.Entries[i].Time, w)
		}
	}
}
