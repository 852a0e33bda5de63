package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BusinessHours is a daily open/close window expressed as offsets from
// midnight. It is re-parsed from configuration on every slot-generation call
// so that config changes take effect without a restart.
type BusinessHours struct {
	Open  time.Duration
	Close time.Duration
}

// ParseBusinessHours parses an "HH:MM-HH:MM" window. An inverted or empty
// window is not a parse error; CandidateSlots simply yields nothing for it.
func ParseBusinessHours(s string) (BusinessHours, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return BusinessHours{}, fmt.Errorf("business hours %q: want \"HH:MM-HH:MM\"", s)
	}
	open, err := ParseTimeOfDay(parts[0])
	if err != nil {
		return BusinessHours{}, fmt.Errorf("business hours %q: %w", s, err)
	}
	closeAt, err := ParseTimeOfDay(parts[1])
	if err != nil {
		return BusinessHours{}, fmt.Errorf("business hours %q: %w", s, err)
	}
	return BusinessHours{Open: open, Close: closeAt}, nil
}

// ParseTimeOfDay parses "HH:MM" into an offset from midnight in [0h, 24h).
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("time must be HH:MM")
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	return t, nil
}

// TimeSlot is the start of one duration-fixed appointment interval. Two slots
// are equal iff their start instants match.
type TimeSlot struct {
	Start time.Time
}

func (s TimeSlot) Equal(o TimeSlot) bool {
	return s.Start.Equal(o.Start)
}

// TimeOfDay renders the slot's start as "HH:MM".
func (s TimeSlot) TimeOfDay() string {
	return s.Start.Format("15:04")
}

// CandidateSlots enumerates every valid slot start for the given date, in
// ascending order. Candidates fall on the hour and half hour within the
// window; a slot whose end would pass the close of business is never emitted.
// date must be midnight of the target day in the business time zone.
func CandidateSlots(date time.Time, hours BusinessHours, duration time.Duration) []TimeSlot {
	if duration <= 0 || hours.Open >= hours.Close {
		return nil
	}

	var out []TimeSlot
	openHour := int(hours.Open / time.Hour)
	closeHour := int((hours.Close + time.Hour - 1) / time.Hour)
	for hour := openHour; hour < closeHour; hour++ {
		for _, minute := range []int{0, 30} {
			offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
			if offset < hours.Open || offset+duration > hours.Close {
				continue
			}
			out = append(out, TimeSlot{Start: date.Add(offset)})
		}
	}
	return out
}

// FilterAvailable keeps the candidates whose [start, start+duration) interval
// intersects no existing event, preserving order.
func FilterAvailable(candidates []TimeSlot, duration time.Duration, events []CalendarEvent) []TimeSlot {
	out := make([]TimeSlot, 0, len(candidates))
	for _, slot := range candidates {
		if CountConflicts(slot.Start, slot.Start.Add(duration), events) == 0 {
			out = append(out, slot)
		}
	}
	return out
}

// CountConflicts counts events intersecting [start, end).
func CountConflicts(start, end time.Time, events []CalendarEvent) int {
	n := 0
	for _, e := range events {
		if e.Overlaps(start, end) {
			n++
		}
	}
	return n
}
