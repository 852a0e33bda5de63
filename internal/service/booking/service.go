package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rendezvous/backend/internal/calendar"
	"rendezvous/backend/internal/domain"
	"rendezvous/backend/internal/notify"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Settings exposes the live business configuration. Implementations read
// the current value on every call, so an updated schedule applies to the
// next request without a restart.
type Settings interface {
	BusinessName() string
	BusinessHours() string
	AppointmentDuration() time.Duration
	Locale() string
	Location() *time.Location
}

// ReminderScheduler enqueues a future reminder for a confirmed event.
// Scheduling failures never fail the booking; they are logged and dropped.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, event domain.CalendarEvent) error
}

type Service struct {
	gateway    calendar.Gateway
	dispatcher notify.Dispatcher
	settings   Settings
	reminders  ReminderScheduler
	log        *slog.Logger
	locks      *slotLocks
}

func NewService(gateway calendar.Gateway, dispatcher notify.Dispatcher, settings Settings, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		gateway:    gateway,
		dispatcher: dispatcher,
		settings:   settings,
		log:        log,
		locks:      newSlotLocks(),
	}
}

// UseReminderScheduler turns on reminder scheduling for successful bookings.
func (s *Service) UseReminderScheduler(rs ReminderScheduler) {
	s.reminders = rs
}

func (s *Service) messages() Messages {
	return MessagesFor(s.settings.Locale())
}

// resolveSlot turns the wire date and time strings into the half-open
// interval the appointment would occupy.
func (s *Service) resolveSlot(date, timeOfDay string) (time.Time, time.Time, error) {
	day, err := domain.ParseDate(strings.TrimSpace(date), s.settings.Location())
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid date, expected YYYY-MM-DD")
	}
	offset, err := domain.ParseTimeOfDay(strings.TrimSpace(timeOfDay))
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid time, expected HH:MM")
	}
	start := day.Add(offset)
	return start, start.Add(s.settings.AppointmentDuration()), nil
}

// CheckAvailability reports whether the requested slot is free. A gateway
// failure fails closed: the slot is reported unavailable and the error is
// returned for the transport layer to classify.
func (s *Service) CheckAvailability(ctx context.Context, date, timeOfDay string) (domain.AvailabilityResult, error) {
	msgs := s.messages()

	start, end, err := s.resolveSlot(date, timeOfDay)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	events, err := s.gateway.ListEvents(ctx, start, end)
	if err != nil {
		s.log.Error("availability check failed", "date", date, "time", timeOfDay, "err", err)
		return domain.AvailabilityResult{Message: msgs.AvailabilityUnknown()}, err
	}

	if n := domain.CountConflicts(start, end, events); n > 0 {
		return domain.AvailabilityResult{Conflicts: n, Message: msgs.SlotUnavailable(n)}, nil
	}

	msg := msgs.SlotAvailable(date, timeOfDay)
	if s.gateway.Offline() {
		msg += msgs.OfflineLabel()
	}
	return domain.AvailabilityResult{Available: true, Message: msg}, nil
}

// DaySlots lists the open slots of one business day.
type DaySlots struct {
	Date    string
	Slots   []domain.TimeSlot
	Message string
}

func (s *Service) AvailableSlots(ctx context.Context, date string) (DaySlots, error) {
	msgs := s.messages()

	day, err := domain.ParseDate(strings.TrimSpace(date), s.settings.Location())
	if err != nil {
		return DaySlots{}, validationError("invalid date, expected YYYY-MM-DD")
	}

	hours, err := domain.ParseBusinessHours(s.settings.BusinessHours())
	if err != nil {
		return DaySlots{}, fmt.Errorf("business hours: %w", err)
	}

	duration := s.settings.AppointmentDuration()
	candidates := domain.CandidateSlots(day, hours, duration)
	if len(candidates) == 0 {
		return DaySlots{Date: date, Message: msgs.DaySlots(date, 0)}, nil
	}

	events, err := s.gateway.ListEvents(ctx, day.Add(hours.Open), day.Add(hours.Close))
	if err != nil {
		s.log.Error("slot listing failed", "date", date, "err", err)
		return DaySlots{Date: date, Message: msgs.AvailabilityUnknown()}, err
	}

	open := domain.FilterAvailable(candidates, duration, events)
	msg := msgs.DaySlots(date, len(open))
	if s.gateway.Offline() {
		msg += msgs.OfflineLabel()
	}
	return DaySlots{Date: date, Slots: open, Message: msg}, nil
}

// Book runs the full pipeline: validate, re-check the slot under its lock,
// create the event, then fan out confirmations. Success tracks the calendar
// write only; failed notifications are reported in the outcomes, never as an
// error.
func (s *Service) Book(ctx context.Context, req domain.AppointmentRequest) (domain.BookingResult, error) {
	msgs := s.messages()

	if strings.TrimSpace(req.Name) == "" {
		return domain.BookingResult{}, validationError("name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return domain.BookingResult{}, validationError("email is required")
	}
	if !strings.Contains(req.Email, "@") {
		// advisory only: the address is stored as-is and a bad one surfaces
		// as a failed email outcome, never as a rejected booking
		s.log.Warn("email address looks malformed", "email", req.Email)
	}
	if strings.TrimSpace(req.Service) == "" {
		return domain.BookingResult{}, validationError("service is required")
	}

	start, end, err := s.resolveSlot(req.Date, req.Time)
	if err != nil {
		return domain.BookingResult{}, err
	}

	// Hold the slot's lock across the availability check and the create so
	// two concurrent requests for the same slot cannot interleave between
	// the read and the write.
	release := s.locks.acquire(start.UTC().Format(time.RFC3339))
	defer release()

	events, err := s.gateway.ListEvents(ctx, start, end)
	if err != nil {
		s.log.Error("booking aborted, availability unknown", "date", req.Date, "time", req.Time, "err", err)
		return domain.BookingResult{Message: msgs.AvailabilityUnknown()}, err
	}
	if n := domain.CountConflicts(start, end, events); n > 0 {
		return domain.BookingResult{Message: msgs.SlotUnavailable(n)}, nil
	}

	created, err := s.gateway.CreateEvent(ctx, s.buildEvent(req, start, end))
	if errors.Is(err, calendar.ErrConflict) {
		// The store's own overlap arbiter won the race; render it as an
		// ordinary conflict.
		return domain.BookingResult{Message: msgs.SlotUnavailable(1)}, nil
	}
	if err != nil {
		s.log.Error("event creation failed", "date", req.Date, "time", req.Time, "err", err)
		return domain.BookingResult{Message: msgs.BookingFailed()}, err
	}

	business := s.settings.BusinessName()
	minutes := int(s.settings.AppointmentDuration() / time.Minute)
	outcomes := s.deliver(ctx,
		req.Email,
		msgs.ConfirmSubject(business),
		msgs.ConfirmEmailBody(req.Name, req.Date, req.Time, req.Service, minutes, req.Notes, business),
		req.Phone,
		msgs.ConfirmSMSBody(business, req.Name, req.Date, req.Time, req.Service, minutes),
	)

	if s.reminders != nil {
		if err := s.reminders.ScheduleReminder(ctx, created); err != nil {
			s.log.Warn("reminder scheduling failed", "event_id", created.ID, "err", err)
		}
	}

	msg := msgs.BookingConfirmed(req.Date, req.Time)
	if s.gateway.Offline() {
		msg += msgs.OfflineLabel()
	}
	msg += " " + msgs.NotificationSummary(outcomeOK(outcomes, domain.ChannelEmail), outcomeOK(outcomes, domain.ChannelSMS))

	s.log.Info("appointment booked", "event_id", created.ID, "date", req.Date, "time", req.Time, "service", req.Service)
	return domain.BookingResult{
		Success:       true,
		EventID:       created.ID,
		Notifications: outcomes,
		Message:       msg,
	}, nil
}

func (s *Service) buildEvent(req domain.AppointmentRequest, start, end time.Time) domain.CalendarEvent {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Patient: %s\n", req.Name)
	if req.Phone != "" {
		fmt.Fprintf(&desc, "Phone: %s\n", req.Phone)
	}
	fmt.Fprintf(&desc, "Service: %s\n", req.Service)
	if req.Notes != "" {
		fmt.Fprintf(&desc, "Notes: %s\n", req.Notes)
	}

	return domain.CalendarEvent{
		Start:         start,
		End:           end,
		Summary:       req.Service + " - " + req.Name,
		Description:   desc.String(),
		AttendeeEmail: req.Email,
		AttendeeName:  req.Name,
		Metadata: domain.EventMetadata{
			PatientName:  req.Name,
			PatientPhone: req.Phone,
			ServiceType:  req.Service,
			Notes:        req.Notes,
		},
	}
}

// Cancel deletes the event and notifies the patient. Cancelling an id the
// store does not know reports success: the desired end state already holds.
func (s *Service) Cancel(ctx context.Context, eventID, reason string) (domain.CancellationResult, error) {
	msgs := s.messages()

	id := strings.TrimSpace(eventID)
	if id == "" {
		return domain.CancellationResult{}, validationError("event_id is required")
	}

	// Contact details live only on the event, so read it before deleting.
	// A failed read just skips the notices.
	ev, getErr := s.gateway.GetEvent(ctx, id)

	err := s.gateway.DeleteEvent(ctx, id)
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		return domain.CancellationResult{Success: true, Message: msgs.CancelAlready()}, nil
	case err != nil:
		s.log.Error("cancellation failed", "event_id", id, "err", err)
		return domain.CancellationResult{Message: msgs.CancelFailed()}, err
	}

	if getErr == nil {
		local := ev.Start.In(s.settings.Location())
		date := local.Format("2006-01-02")
		timeOfDay := local.Format("15:04")
		business := s.settings.BusinessName()
		s.deliver(ctx,
			ev.AttendeeEmail,
			msgs.CancelSubject(business),
			msgs.CancelEmailBody(ev.AttendeeName, date, timeOfDay, reason, business),
			ev.Metadata.PatientPhone,
			msgs.CancelSMSBody(business, date, timeOfDay),
		)
	} else if !errors.Is(getErr, calendar.ErrNotFound) {
		s.log.Warn("cancellation notices skipped", "event_id", id, "err", getErr)
	}

	s.log.Info("appointment cancelled", "event_id", id)
	msg := msgs.CancelConfirmed()
	if s.gateway.Offline() {
		msg += msgs.OfflineLabel()
	}
	return domain.CancellationResult{Success: true, Message: msg}, nil
}

// ReminderInput carries the details for an ad-hoc or scheduled reminder.
type ReminderInput struct {
	Name    string
	Email   string
	Phone   string
	Date    string
	Time    string
	Service string
}

// SendReminder fans the reminder out to both channels. It succeeds when at
// least one channel delivered.
func (s *Service) SendReminder(ctx context.Context, in ReminderInput) (domain.ReminderResult, error) {
	msgs := s.messages()

	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return domain.ReminderResult{}, validationError("email or phone is required")
	}

	business := s.settings.BusinessName()
	outcomes := s.deliver(ctx,
		in.Email,
		msgs.ReminderSubject(business),
		msgs.ReminderEmailBody(in.Name, in.Date, in.Time, in.Service, business),
		in.Phone,
		msgs.ReminderSMSBody(business, in.Date, in.Time),
	)

	success := false
	for _, o := range outcomes {
		if o.OK {
			success = true
		}
	}

	msg := msgs.ReminderSent()
	if !success {
		msg = msgs.ReminderFailed()
	}
	return domain.ReminderResult{Success: success, Notifications: outcomes, Message: msg}, nil
}

// deliver fans out to the configured channels concurrently and joins both
// sends before returning. A blank recipient skips its channel entirely.
func (s *Service) deliver(ctx context.Context, email, subject, emailBody, phone, smsBody string) []domain.NotificationOutcome {
	withEmail := strings.TrimSpace(email) != ""
	withSMS := strings.TrimSpace(phone) != ""

	var (
		wg       sync.WaitGroup
		emailOut domain.NotificationOutcome
		smsOut   domain.NotificationOutcome
	)
	if withEmail {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emailOut = s.dispatcher.SendEmail(ctx, email, subject, emailBody)
		}()
	}
	if withSMS {
		wg.Add(1)
		go func() {
			defer wg.Done()
			smsOut = s.dispatcher.SendSMS(ctx, phone, smsBody)
		}()
	}
	wg.Wait()

	outcomes := make([]domain.NotificationOutcome, 0, 2)
	if withEmail {
		outcomes = append(outcomes, emailOut)
	}
	if withSMS {
		outcomes = append(outcomes, smsOut)
	}
	for _, o := range outcomes {
		if !o.OK {
			s.log.Warn("notification failed", "channel", o.Channel, "reason", o.Message)
		}
	}
	return outcomes
}

func outcomeOK(outcomes []domain.NotificationOutcome, ch domain.Channel) bool {
	for _, o := range outcomes {
		if o.Channel == ch && o.OK {
			return true
		}
	}
	return false
}
