package domain

import (
	"time"
)

// AppointmentRequest is the immutable input to a booking attempt. Date and
// Time carry the wire format ("2006-01-02", "15:04") and are validated by the
// booking service before any external call.
type AppointmentRequest struct {
	Name    string
	Email   string
	Phone   string
	Date    string
	Time    string
	Service string
	Notes   string
}

// EventMetadata is the extended, store-private payload attached to an event.
type EventMetadata struct {
	PatientName  string
	PatientPhone string
	ServiceType  string
	Notes        string
}

// CalendarEvent is owned by the calendar store. The booking service never
// mutates one in place; it only issues create and delete calls.
type CalendarEvent struct {
	ID            string
	Start         time.Time
	End           time.Time
	Summary       string
	Description   string
	AttendeeEmail string
	AttendeeName  string
	Metadata      EventMetadata
}

// Overlaps reports whether the event intersects [start, end) under
// closed-open semantics: an event ending exactly at start does not overlap.
func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// NotificationOutcome records one channel attempt. Outcomes are data, never
// errors: a failed send is reported here and nowhere else.
type NotificationOutcome struct {
	Channel Channel
	OK      bool
	Message string
}

// AvailabilityResult is derived from the calendar store, never persisted.
type AvailabilityResult struct {
	Available bool
	Conflicts int
	Message   string
}

// BookingResult is the terminal artifact of a booking operation. Success
// tracks the calendar write only; notification outcomes ride alongside.
type BookingResult struct {
	Success       bool
	EventID       string
	Notifications []NotificationOutcome
	Message       string
}

type CancellationResult struct {
	Success bool
	Message string
}

type ReminderResult struct {
	Success       bool
	Notifications []NotificationOutcome
	Message       string
}
