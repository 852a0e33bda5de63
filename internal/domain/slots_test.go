package domain

import (
	"testing"
	"time"
)

func TestParseBusinessHours(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    BusinessHours
		wantErr bool
	}{
		{
			name: "standard window",
			in:   "09:00-17:00",
			want: BusinessHours{Open: 9 * time.Hour, Close: 17 * time.Hour},
		},
		{
			name: "half hour open",
			in:   "09:30-12:00",
			want: BusinessHours{Open: 9*time.Hour + 30*time.Minute, Close: 12 * time.Hour},
		},
		{
			name: "inverted window parses",
			in:   "17:00-09:00",
			want: BusinessHours{Open: 17 * time.Hour, Close: 9 * time.Hour},
		},
		{
			name:    "missing separator",
			in:      "09:00",
			wantErr: true,
		},
		{
			name:    "garbage",
			in:      "open-close",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBusinessHours(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBusinessHours error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("hours = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCandidateSlots_StandardDay(t *testing.T) {
	date := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	hours := BusinessHours{Open: 9 * time.Hour, Close: 17 * time.Hour}

	slots := CandidateSlots(date, hours, 30*time.Minute)

	if len(slots) != 16 {
		t.Fatalf("slot count = %d, want 16", len(slots))
	}
	if slots[0].TimeOfDay() != "09:00" {
		t.Fatalf("first slot = %s, want 09:00", slots[0].TimeOfDay())
	}
	if slots[len(slots)-1].TimeOfDay() != "16:30" {
		t.Fatalf("last slot = %s, want 16:30", slots[len(slots)-1].TimeOfDay())
	}

	closeAt := date.Add(hours.Close)
	for i, s := range slots {
		if i > 0 && !slots[i-1].Start.Before(s.Start) {
			t.Fatalf("slots not strictly ascending at %d: %v then %v", i, slots[i-1].Start, s.Start)
		}
		if !s.Start.Before(closeAt) {
			t.Fatalf("slot %s at or past close of business", s.TimeOfDay())
		}
		if s.Start.Add(30 * time.Minute).After(closeAt) {
			t.Fatalf("slot %s ends past close of business", s.TimeOfDay())
		}
	}
}

func TestCandidateSlots_InvertedOrEmptyWindow(t *testing.T) {
	date := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hours BusinessHours
	}{
		{name: "inverted", hours: BusinessHours{Open: 17 * time.Hour, Close: 9 * time.Hour}},
		{name: "empty", hours: BusinessHours{Open: 9 * time.Hour, Close: 9 * time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CandidateSlots(date, tt.hours, 30*time.Minute); len(got) != 0 {
				t.Fatalf("slot count = %d, want 0", len(got))
			}
		})
	}
}

func TestCandidateSlots_LongDurationNeverPassesClose(t *testing.T) {
	date := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	hours := BusinessHours{Open: 9 * time.Hour, Close: 17 * time.Hour}

	slots := CandidateSlots(date, hours, time.Hour)
	if len(slots) == 0 {
		t.Fatalf("expected slots")
	}
	if last := slots[len(slots)-1].TimeOfDay(); last != "16:00" {
		t.Fatalf("last slot = %s, want 16:00", last)
	}
}

func TestFilterAvailable_ClosedOpenSemantics(t *testing.T) {
	date := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	hours := BusinessHours{Open: 13 * time.Hour, Close: 16 * time.Hour}
	candidates := CandidateSlots(date, hours, 30*time.Minute)

	events := []CalendarEvent{
		{
			ID:    "busy",
			Start: date.Add(14 * time.Hour),
			End:   date.Add(14*time.Hour + 30*time.Minute),
		},
	}

	open := FilterAvailable(candidates, 30*time.Minute, events)

	times := make(map[string]bool, len(open))
	for _, s := range open {
		times[s.TimeOfDay()] = true
	}
	if times["14:00"] {
		t.Fatalf("slot 14:00 should be excluded by event [14:00,14:30)")
	}
	if !times["13:30"] {
		t.Fatalf("slot 13:30 should remain available")
	}
	if !times["14:30"] {
		t.Fatalf("slot 14:30 should remain available, event ends exactly at its start")
	}
}

func TestCountConflicts(t *testing.T) {
	start := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	events := []CalendarEvent{
		{ID: "a", Start: start.Add(-time.Hour), End: start},
		{ID: "b", Start: start.Add(15 * time.Minute), End: end.Add(time.Hour)},
		{ID: "c", Start: start.Add(-15 * time.Minute), End: start.Add(15 * time.Minute)},
		{ID: "d", Start: end, End: end.Add(time.Hour)},
	}

	if got := CountConflicts(start, end, events); got != 2 {
		t.Fatalf("conflicts = %d, want 2", got)
	}
	if got := CountConflicts(start, end, nil); got != 0 {
		t.Fatalf("conflicts on empty calendar = %d, want 0", got)
	}
}
