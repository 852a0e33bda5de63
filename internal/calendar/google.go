package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"rendezvous/backend/internal/domain"
)

// GoogleGateway talks to a single Google Calendar. The service account named
// in the credentials file must have write access to the calendar.
type GoogleGateway struct {
	events     *gcal.EventsService
	calendarID string
	timezone   string
}

func NewGoogleGateway(ctx context.Context, calendarID, credentialsFile, timezone string) (*GoogleGateway, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, gatewayError("init", err)
	}
	return &GoogleGateway{
		events:     svc.Events,
		calendarID: calendarID,
		timezone:   timezone,
	}, nil
}

func (g *GoogleGateway) Offline() bool { return false }

func (g *GoogleGateway) ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	res, err := g.events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, gatewayError("list", err)
	}

	out := make([]domain.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Status == "cancelled" {
			continue
		}
		ev, err := g.fromGoogle(item)
		if err != nil {
			return nil, gatewayError("list", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, draft domain.CalendarEvent) (domain.CalendarEvent, error) {
	created, err := g.events.Insert(g.calendarID, g.toGoogle(draft)).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return domain.CalendarEvent{}, gatewayError("create", err)
	}
	draft.ID = created.Id
	return draft, nil
}

func (g *GoogleGateway) GetEvent(ctx context.Context, id string) (domain.CalendarEvent, error) {
	item, err := g.events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return domain.CalendarEvent{}, ErrNotFound
		}
		return domain.CalendarEvent{}, gatewayError("get", err)
	}
	if item.Status == "cancelled" {
		return domain.CalendarEvent{}, ErrNotFound
	}
	return g.fromGoogle(item)
}

func (g *GoogleGateway) DeleteEvent(ctx context.Context, id string) error {
	err := g.events.Delete(g.calendarID, id).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return ErrNotFound
		}
		return gatewayError("delete", err)
	}
	return nil
}

// isGone matches the API's two spellings of "no such event": 404 for an
// unknown id, 410 for one that was already deleted.
func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}

func (g *GoogleGateway) toGoogle(ev domain.CalendarEvent) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		Attendees: []*gcal.EventAttendee{
			{Email: ev.AttendeeEmail, DisplayName: ev.AttendeeName},
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{
				"patient_name":  ev.Metadata.PatientName,
				"patient_phone": ev.Metadata.PatientPhone,
				"service_type":  ev.Metadata.ServiceType,
			},
		},
	}
}

func (g *GoogleGateway) fromGoogle(item *gcal.Event) (domain.CalendarEvent, error) {
	start, err := parseEventTime(item.Start)
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, err := parseEventTime(item.End)
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("event %s end: %w", item.Id, err)
	}

	ev := domain.CalendarEvent{
		ID:          item.Id,
		Start:       start,
		End:         end,
		Summary:     item.Summary,
		Description: item.Description,
	}
	if len(item.Attendees) > 0 {
		ev.AttendeeEmail = item.Attendees[0].Email
		ev.AttendeeName = item.Attendees[0].DisplayName
	}
	if item.ExtendedProperties != nil && item.ExtendedProperties.Private != nil {
		priv := item.ExtendedProperties.Private
		ev.Metadata = domain.EventMetadata{
			PatientName:  priv["patient_name"],
			PatientPhone: priv["patient_phone"],
			ServiceType:  priv["service_type"],
		}
	}
	return ev, nil
}

// parseEventTime handles both timed events and all-day events, which carry a
// bare date instead of an RFC3339 instant.
func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, errors.New("missing time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	if edt.Date != "" {
		return time.Parse("2006-01-02", edt.Date)
	}
	return time.Time{}, errors.New("missing time")
}
