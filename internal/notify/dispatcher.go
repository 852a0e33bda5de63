package notify

import (
	"context"

	"rendezvous/backend/internal/domain"
)

// Dispatcher sends messages through the external email and SMS transports.
// Sends are independent and safe to call concurrently. Failures come back as
// outcomes, never as errors or panics, so the booking and cancellation
// engines can always record a per-channel result and move on.
type Dispatcher interface {
	SendEmail(ctx context.Context, recipient, subject, body string) domain.NotificationOutcome
	SendSMS(ctx context.Context, recipient, body string) domain.NotificationOutcome
}

func emailFailure(msg string) domain.NotificationOutcome {
	return domain.NotificationOutcome{Channel: domain.ChannelEmail, OK: false, Message: msg}
}

func smsFailure(msg string) domain.NotificationOutcome {
	return domain.NotificationOutcome{Channel: domain.ChannelSMS, OK: false, Message: msg}
}

// Channels bundles one sender per channel into a Dispatcher.
type Channels struct {
	Email EmailSender
	SMS   SMSSender
}

type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) domain.NotificationOutcome
}

type SMSSender interface {
	SendSMS(ctx context.Context, recipient, body string) domain.NotificationOutcome
}

func (c Channels) SendEmail(ctx context.Context, recipient, subject, body string) domain.NotificationOutcome {
	if c.Email == nil {
		return emailFailure("email transport not configured")
	}
	return c.Email.SendEmail(ctx, recipient, subject, body)
}

func (c Channels) SendSMS(ctx context.Context, recipient, body string) domain.NotificationOutcome {
	if c.SMS == nil {
		return smsFailure("sms transport not configured")
	}
	return c.SMS.SendSMS(ctx, recipient, body)
}
