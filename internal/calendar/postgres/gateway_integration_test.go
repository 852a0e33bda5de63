package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"rendezvous/backend/internal/calendar"
	"rendezvous/backend/internal/domain"
)

const integrationSchemaSQL = `
CREATE TABLE calendar_events (
    id uuid PRIMARY KEY,
    start_time timestamptz NOT NULL,
    end_time timestamptz NOT NULL,
    summary text NOT NULL,
    description text NOT NULL DEFAULT '',
    attendee_email text NOT NULL,
    attendee_name text NOT NULL DEFAULT '',
    patient_name text NOT NULL DEFAULT '',
    patient_phone text NOT NULL DEFAULT '',
    service_type text NOT NULL DEFAULT '',
    notes text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL,
    CONSTRAINT calendar_events_valid_interval CHECK (end_time > start_time),
    CONSTRAINT calendar_events_no_overlap EXCLUDE USING gist (
        tstzrange(start_time, end_time) WITH &&
    )
)`

func TestPostgresIntegration_EventLifecycle(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("RENDEZVOUS_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("RENDEZVOUS_TEST_DATABASE_URL not set")
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer openCancel()
	db, err := Open(openCtx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	schema := "rendezvous_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.NewRaw("CREATE EXTENSION IF NOT EXISTS btree_gist SCHEMA public").Exec(ctx); err != nil {
		t.Fatalf("create extension: %v", err)
	}
	if _, err := db.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := db.NewRaw("SET search_path TO " + schema + ", public").Exec(ctx); err != nil {
		t.Fatalf("set search_path: %v", err)
	}
	if _, err := db.NewRaw(integrationSchemaSQL).Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}

	g := NewGateway(db)
	start := time.Date(2025, 12, 10, 14, 30, 0, 0, time.UTC)

	created, err := g.CreateEvent(ctx, domain.CalendarEvent{
		Start:         start,
		End:           start.Add(30 * time.Minute),
		Summary:       "Consultation - Marie Curie",
		AttendeeEmail: "marie@example.fr",
		Metadata:      domain.EventMetadata{PatientPhone: "+33612345678"},
	})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}

	events, err := g.ListEvents(ctx, start.Add(-time.Minute), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	// Exclusion constraint backstop rejects an overlapping insert.
	_, err = g.CreateEvent(ctx, domain.CalendarEvent{
		Start:         start.Add(15 * time.Minute),
		End:           start.Add(45 * time.Minute),
		Summary:       "Overlap",
		AttendeeEmail: "other@example.fr",
	})
	if !errors.Is(err, calendar.ErrConflict) {
		t.Fatalf("overlap error = %v, want ErrConflict", err)
	}

	// Back-to-back events are fine under closed-open ranges.
	_, err = g.CreateEvent(ctx, domain.CalendarEvent{
		Start:         start.Add(30 * time.Minute),
		End:           start.Add(time.Hour),
		Summary:       "Next",
		AttendeeEmail: "next@example.fr",
	})
	if err != nil {
		t.Fatalf("adjacent CreateEvent error: %v", err)
	}

	got, err := g.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEvent error: %v", err)
	}
	if got.Metadata.PatientPhone != "+33612345678" {
		t.Fatalf("metadata phone = %q", got.Metadata.PatientPhone)
	}

	if err := g.DeleteEvent(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEvent error: %v", err)
	}
	if err := g.DeleteEvent(ctx, created.ID); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
