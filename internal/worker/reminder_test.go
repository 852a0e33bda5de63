package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"rendezvous/backend/internal/domain"
	"rendezvous/backend/internal/service/booking"
)

type fakeSender struct {
	sendFn func(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error)
}

func (f *fakeSender) SendReminder(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error) {
	if f.sendFn == nil {
		panic("SendReminder not configured")
	}
	return f.sendFn(ctx, in)
}

func TestNewReminderTask_PayloadRoundTrip(t *testing.T) {
	fireAt := time.Date(2025, 12, 9, 14, 30, 0, 0, time.UTC)
	task, opts, err := newReminderTask(ReminderPayload{
		EventID: "evt-1",
		Name:    "Marie Dupont",
		Email:   "marie@example.com",
		Date:    "2025-12-10",
		Time:    "14:30",
		Service: "Consultation",
	}, fireAt)
	if err != nil {
		t.Fatalf("newReminderTask error: %v", err)
	}
	if task.Type() != TypeReminderSend {
		t.Fatalf("type = %q, want %q", task.Type(), TypeReminderSend)
	}
	if len(opts) != 1 {
		t.Fatalf("opts = %d, want 1", len(opts))
	}

	var p ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.EventID != "evt-1" || p.Date != "2025-12-10" || p.Time != "14:30" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestHandleReminder_DeliversAndSucceeds(t *testing.T) {
	var got booking.ReminderInput
	h := handleReminder(&fakeSender{
		sendFn: func(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error) {
			got = in
			return domain.ReminderResult{Success: true}, nil
		},
	}, slog.Default())

	task, _, err := newReminderTask(ReminderPayload{
		EventID: "evt-1",
		Name:    "Marie Dupont",
		Email:   "marie@example.com",
		Phone:   "+33612345678",
		Date:    "2025-12-10",
		Time:    "14:30",
		Service: "Consultation",
	}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("newReminderTask error: %v", err)
	}

	if err := h(context.Background(), task); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Email != "marie@example.com" || got.Time != "14:30" {
		t.Fatalf("input = %+v", got)
	}
}

func TestHandleReminder_FailedDeliveryRetries(t *testing.T) {
	h := handleReminder(&fakeSender{
		sendFn: func(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error) {
			return domain.ReminderResult{Success: false}, nil
		},
	}, slog.Default())

	task, _, _ := newReminderTask(ReminderPayload{EventID: "evt-1", Email: "a@b.c"}, time.Now())
	err := h(context.Background(), task)
	if err == nil {
		t.Fatalf("expected error so the task is retried")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("delivery failure must stay retryable, got SkipRetry")
	}
}

func TestHandleReminder_BadPayloadSkipsRetry(t *testing.T) {
	h := handleReminder(&fakeSender{}, slog.Default())

	err := h(context.Background(), asynq.NewTask(TypeReminderSend, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("error = %v, want SkipRetry", err)
	}
}

func TestHandleReminder_ValidationErrorSkipsRetry(t *testing.T) {
	h := handleReminder(&fakeSender{
		sendFn: func(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error) {
			return domain.ReminderResult{}, &booking.ValidationError{}
		},
	}, slog.Default())

	task, _, _ := newReminderTask(ReminderPayload{EventID: "evt-1"}, time.Now())
	err := h(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("error = %v, want SkipRetry", err)
	}
}
