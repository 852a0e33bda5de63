package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"rendezvous/backend/internal/domain"
)

func TestEventRowMappingRoundTrip(t *testing.T) {
	start := time.Date(2025, 12, 10, 14, 30, 0, 0, time.UTC)
	ev := domain.CalendarEvent{
		ID:            uuid.MustParse("00000000-0000-0000-0000-000000000042").String(),
		Start:         start,
		End:           start.Add(30 * time.Minute),
		Summary:       "Consultation - Marie Curie",
		Description:   "Rendez-vous avec Marie Curie",
		AttendeeEmail: "marie@example.fr",
		AttendeeName:  "Marie Curie",
		Metadata: domain.EventMetadata{
			PatientName:  "Marie Curie",
			PatientPhone: "+33612345678",
			ServiceType:  "Consultation",
			Notes:        "premiere visite",
		},
	}

	got := toDomain(fromDomain(ev))
	if got != ev {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, ev)
	}
}

func TestFromDomainGeneratesNilIDForUnassignedEvents(t *testing.T) {
	row := fromDomain(domain.CalendarEvent{
		Start: time.Now(),
		End:   time.Now().Add(30 * time.Minute),
	})
	if row.ID != uuid.Nil {
		t.Fatalf("id = %s, want nil uuid so the insert hook assigns one", row.ID)
	}
}

func TestPoolConfigAppliesDefaults(t *testing.T) {
	// sql.Open does not dial, so no database is needed here.
	db, err := sql.Open("pgx", "postgres://localhost/unused")
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	PoolConfig{}.apply(db)
	if got := db.Stats().MaxOpenConnections; got != 20 {
		t.Fatalf("default max open conns = %d, want 20", got)
	}

	PoolConfig{MaxOpenConns: 4}.apply(db)
	if got := db.Stats().MaxOpenConnections; got != 4 {
		t.Fatalf("max open conns = %d, want 4", got)
	}
}

func TestFromDomainNormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	start := time.Date(2025, 12, 10, 14, 30, 0, 0, loc)

	row := fromDomain(domain.CalendarEvent{Start: start, End: start.Add(30 * time.Minute)})
	if row.StartTime.Location() != time.UTC || row.EndTime.Location() != time.UTC {
		t.Fatalf("expected UTC storage, got start=%v end=%v", row.StartTime, row.EndTime)
	}
	if !row.StartTime.Equal(start) {
		t.Fatalf("instant changed during normalization: %v vs %v", row.StartTime, start)
	}
}
