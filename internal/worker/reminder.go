// Package worker schedules and delivers appointment reminders through an
// asynq queue backed by Redis. Scheduling is best effort: a booking never
// fails because the queue is down.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"rendezvous/backend/internal/domain"
	"rendezvous/backend/internal/service/booking"
)

const TypeReminderSend = "reminder:send"

type ReminderPayload struct {
	EventID string `json:"event_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Service string `json:"service"`
}

func newReminderTask(p ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	return asynq.NewTask(TypeReminderSend, b), []asynq.Option{asynq.ProcessAt(fireAt)}, nil
}

// Scheduler enqueues one reminder per confirmed booking, timed lead before
// the appointment start. It satisfies booking.ReminderScheduler.
type Scheduler struct {
	client *asynq.Client
	lead   time.Duration
	loc    *time.Location
	log    *slog.Logger
}

func NewScheduler(redis asynq.RedisClientOpt, lead time.Duration, loc *time.Location, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		client: asynq.NewClient(redis),
		lead:   lead,
		loc:    loc,
		log:    log,
	}
}

func (s *Scheduler) ScheduleReminder(ctx context.Context, event domain.CalendarEvent) error {
	fireAt := event.Start.Add(-s.lead)
	if !fireAt.After(time.Now()) {
		// Appointment starts within the lead window; a reminder now would
		// only duplicate the confirmation.
		s.log.Debug("reminder skipped, appointment too soon", "event_id", event.ID)
		return nil
	}

	local := event.Start.In(s.loc)
	name := event.AttendeeName
	if name == "" {
		name = event.Metadata.PatientName
	}
	task, opts, err := newReminderTask(ReminderPayload{
		EventID: event.ID,
		Name:    name,
		Email:   event.AttendeeEmail,
		Phone:   event.Metadata.PatientPhone,
		Date:    local.Format("2006-01-02"),
		Time:    local.Format("15:04"),
		Service: event.Metadata.ServiceType,
	}, fireAt)
	if err != nil {
		return err
	}

	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	s.log.Info("reminder scheduled", "event_id", event.ID, "task_id", info.ID, "fire_at", fireAt)
	return nil
}

func (s *Scheduler) Close() error {
	return s.client.Close()
}

// ReminderSender is the slice of the booking service the worker needs.
type ReminderSender interface {
	SendReminder(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error)
}

// Server consumes scheduled reminder tasks. Delivery failures are returned
// to asynq so the task is retried with its default backoff; payloads that
// can never succeed are dropped.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log *slog.Logger
}

func NewServer(redis asynq.RedisClientOpt, sender ReminderSender, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminder(sender, log))
	return &Server{srv: srv, mux: mux, log: log}
}

// Start launches the consumer in the background. It returns an error only
// when the server fails to start.
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

func handleReminder(sender ReminderSender, log *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Error("reminder payload invalid", "err", err)
			return fmt.Errorf("unmarshal reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		res, err := sender.SendReminder(ctx, booking.ReminderInput{
			Name:    p.Name,
			Email:   p.Email,
			Phone:   p.Phone,
			Date:    p.Date,
			Time:    p.Time,
			Service: p.Service,
		})
		var vErr *booking.ValidationError
		if errors.As(err, &vErr) {
			// Retrying a payload with no usable contact never helps.
			log.Error("reminder dropped", "event_id", p.EventID, "err", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("reminder delivery failed for event %s", p.EventID)
		}

		log.Info("reminder delivered", "event_id", p.EventID, "date", p.Date, "time", p.Time)
		return nil
	}
}
