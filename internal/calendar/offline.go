package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rendezvous/backend/internal/domain"
)

// OfflineGateway is the explicit no-backing-store mode: an in-memory event
// set seeded from configuration. It never stands in for an unreachable real
// store; callers select it deliberately, and the booking service labels every
// result produced through it.
type OfflineGateway struct {
	mu     sync.Mutex
	events map[string]domain.CalendarEvent
}

// NewOfflineGateway seeds the gateway with pre-declared busy intervals.
// Everything outside the seed reads as available.
func NewOfflineGateway(busy []domain.CalendarEvent) *OfflineGateway {
	g := &OfflineGateway{events: make(map[string]domain.CalendarEvent, len(busy))}
	for _, ev := range busy {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		g.events[ev.ID] = ev
	}
	return g
}

func (g *OfflineGateway) Offline() bool { return true }

func (g *OfflineGateway) ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, gatewayError("list", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var out []domain.CalendarEvent
	for _, ev := range g.events {
		if ev.Overlaps(start, end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (g *OfflineGateway) CreateEvent(ctx context.Context, draft domain.CalendarEvent) (domain.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.CalendarEvent{}, gatewayError("create", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ev := range g.events {
		if ev.Overlaps(draft.Start, draft.End) {
			return domain.CalendarEvent{}, ErrConflict
		}
	}

	draft.ID = uuid.NewString()
	g.events[draft.ID] = draft
	return draft, nil
}

func (g *OfflineGateway) GetEvent(ctx context.Context, id string) (domain.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.CalendarEvent{}, gatewayError("get", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ev, ok := g.events[id]
	if !ok {
		return domain.CalendarEvent{}, ErrNotFound
	}
	return ev, nil
}

func (g *OfflineGateway) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return gatewayError("delete", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.events[id]; !ok {
		return ErrNotFound
	}
	delete(g.events, id)
	return nil
}
