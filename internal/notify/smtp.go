package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"rendezvous/backend/internal/domain"
)

// SMTPSender delivers confirmation mail over a plain SMTP session with
// STARTTLS, the same shape as the original operator setup (user + app
// password against a provider relay).
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration

	Log *slog.Logger
}

func (s *SMTPSender) configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

func (s *SMTPSender) from() string {
	if s.From != "" {
		return s.From
	}
	return s.Username
}

func (s *SMTPSender) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *SMTPSender) SendEmail(ctx context.Context, recipient, subject, body string) domain.NotificationOutcome {
	if !s.configured() {
		s.log().Warn("email not sent", slog.String("reason", "smtp_not_configured"))
		return emailFailure("email transport not configured")
	}

	if err := s.send(ctx, recipient, subject, body); err != nil {
		s.log().Error("email send failed", slog.Any("err", err), slog.String("recipient", recipient))
		return emailFailure(fmt.Sprintf("email to %s failed: %v", recipient, err))
	}

	s.log().Info("email sent", slog.String("recipient", recipient))
	return domain.NotificationOutcome{
		Channel: domain.ChannelEmail,
		OK:      true,
		Message: fmt.Sprintf("confirmation email sent to %s", recipient),
	}
}

func (s *SMTPSender) send(ctx context.Context, recipient, subject, body string) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	addr := net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return err
		}
	}
	if err := client.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
		return err
	}
	if err := client.Mail(s.from()); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(buildMessage(s.from(), recipient, subject, body))); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
