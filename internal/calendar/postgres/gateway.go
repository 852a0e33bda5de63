package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"rendezvous/backend/internal/calendar"
	"rendezvous/backend/internal/domain"
)

// eventRow is the bun mapping for the calendar_events table. The table
// carries an exclusion constraint (calendar_events_no_overlap) over
// tstzrange(start_time, end_time) as a backstop against concurrent writers.
type eventRow struct {
	bun.BaseModel `bun:"table:calendar_events"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	StartTime     time.Time `bun:"start_time,notnull"`
	EndTime       time.Time `bun:"end_time,notnull"`
	Summary       string    `bun:"summary,notnull"`
	Description   string    `bun:"description"`
	AttendeeEmail string    `bun:"attendee_email,notnull"`
	AttendeeName  string    `bun:"attendee_name"`
	PatientName   string    `bun:"patient_name"`
	PatientPhone  string    `bun:"patient_phone"`
	ServiceType   string    `bun:"service_type"`
	Notes         string    `bun:"notes"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (r *eventRow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// Gateway is the Postgres-backed calendar store, for deployments that keep
// the appointment book locally instead of in Google Calendar.
type Gateway struct {
	db *bun.DB
}

func NewGateway(db *bun.DB) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) Offline() bool { return false }

func (g *Gateway) ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	var rows []eventRow
	err := g.db.NewSelect().
		Model(&rows).
		Where("start_time < ?", end).
		Where("end_time > ?", start).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, &calendar.GatewayError{Op: "list", Err: err}
	}

	out := make([]domain.CalendarEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomain(r))
	}
	return out, nil
}

func (g *Gateway) CreateEvent(ctx context.Context, draft domain.CalendarEvent) (domain.CalendarEvent, error) {
	row := fromDomain(draft)
	_, err := g.db.NewInsert().Model(&row).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return domain.CalendarEvent{}, calendar.ErrConflict
		}
		return domain.CalendarEvent{}, &calendar.GatewayError{Op: "create", Err: err}
	}

	draft.ID = row.ID.String()
	return draft, nil
}

func (g *Gateway) GetEvent(ctx context.Context, id string) (domain.CalendarEvent, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return domain.CalendarEvent{}, calendar.ErrNotFound
	}

	var row eventRow
	err = g.db.NewSelect().
		Model(&row).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalendarEvent{}, calendar.ErrNotFound
		}
		return domain.CalendarEvent{}, &calendar.GatewayError{Op: "get", Err: err}
	}
	return toDomain(row), nil
}

func (g *Gateway) DeleteEvent(ctx context.Context, id string) error {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return calendar.ErrNotFound
	}

	res, err := g.db.NewDelete().
		Model((*eventRow)(nil)).
		Where("id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return &calendar.GatewayError{Op: "delete", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &calendar.GatewayError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return calendar.ErrNotFound
	}
	return nil
}

func toDomain(r eventRow) domain.CalendarEvent {
	return domain.CalendarEvent{
		ID:            r.ID.String(),
		Start:         r.StartTime,
		End:           r.EndTime,
		Summary:       r.Summary,
		Description:   r.Description,
		AttendeeEmail: r.AttendeeEmail,
		AttendeeName:  r.AttendeeName,
		Metadata: domain.EventMetadata{
			PatientName:  r.PatientName,
			PatientPhone: r.PatientPhone,
			ServiceType:  r.ServiceType,
			Notes:        r.Notes,
		},
	}
}

func fromDomain(ev domain.CalendarEvent) eventRow {
	row := eventRow{
		StartTime:     ev.Start.UTC(),
		EndTime:       ev.End.UTC(),
		Summary:       ev.Summary,
		Description:   ev.Description,
		AttendeeEmail: ev.AttendeeEmail,
		AttendeeName:  ev.AttendeeName,
		PatientName:   ev.Metadata.PatientName,
		PatientPhone:  ev.Metadata.PatientPhone,
		ServiceType:   ev.Metadata.ServiceType,
		Notes:         ev.Metadata.Notes,
	}
	if id, err := uuid.Parse(ev.ID); err == nil {
		row.ID = id
	}
	return row
}
