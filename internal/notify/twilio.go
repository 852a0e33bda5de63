package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rendezvous/backend/internal/domain"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender posts to the Twilio Messages resource directly, the way the
// original integration did, rather than through an SDK.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// BaseURL overrides the Twilio API root in tests.
	BaseURL string
	Client  *http.Client
	Log     *slog.Logger
}

func (s *TwilioSender) configured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
}

func (s *TwilioSender) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (s *TwilioSender) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *TwilioSender) SendSMS(ctx context.Context, recipient, body string) domain.NotificationOutcome {
	if !s.configured() {
		s.log().Warn("sms not sent", slog.String("reason", "twilio_not_configured"))
		return smsFailure("sms transport not configured")
	}

	to := NormalizePhone(recipient)

	base := s.BaseURL
	if base == "" {
		base = twilioAPIBase
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", base, s.AccountSID)

	form := url.Values{}
	form.Set("From", s.FromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return smsFailure(fmt.Sprintf("sms to %s failed: %v", to, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.AccountSID, s.AuthToken)

	res, err := s.httpClient().Do(req)
	if err != nil {
		s.log().Error("sms send failed", slog.Any("err", err), slog.String("recipient", to))
		return smsFailure(fmt.Sprintf("sms to %s failed: %v", to, err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		s.log().Error("sms send rejected",
			slog.Int("status", res.StatusCode),
			slog.String("recipient", to),
			slog.String("detail", string(detail)),
		)
		return smsFailure(fmt.Sprintf("sms to %s rejected with status %d", to, res.StatusCode))
	}

	s.log().Info("sms sent", slog.String("recipient", to))
	return domain.NotificationOutcome{
		Channel: domain.ChannelSMS,
		OK:      true,
		Message: fmt.Sprintf("confirmation sms sent to %s", to),
	}
}

// NormalizePhone prefixes bare national numbers with the French country code,
// mirroring the original deployment's assumption for numbers like 0612345678.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	if p == "" || strings.HasPrefix(p, "+") {
		return p
	}
	if strings.HasPrefix(p, "0") {
		return "+33" + p[1:]
	}
	return "+33" + p
}
