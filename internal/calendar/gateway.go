package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rendezvous/backend/internal/domain"
)

var (
	// ErrNotFound reports a delete or get against an event id the store does
	// not know. It is distinguishable from transport failure by design:
	// cancellation treats it as success.
	ErrNotFound = errors.New("event not found")

	// ErrConflict reports a create rejected by the store's own overlap
	// arbiter. The booking service renders it as a normal conflict result.
	ErrConflict = errors.New("event conflicts with an existing event")
)

// GatewayError wraps any auth, quota, or transport failure from the backing
// calendar store. Availability is unknown behind one of these; callers must
// fail closed rather than assume a free slot.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func gatewayError(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}

// Gateway is the calendar store's client interface, the single source of
// truth for conflict detection. Implementations must bound every call with
// the context deadline; a timed-out call surfaces as a *GatewayError.
type Gateway interface {
	// ListEvents returns the events intersecting the half-open range
	// [start, end). Ordering is not significant to callers.
	ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error)

	// CreateEvent stores a draft event and returns it with its assigned id.
	CreateEvent(ctx context.Context, draft domain.CalendarEvent) (domain.CalendarEvent, error)

	// GetEvent fetches one event by id, ErrNotFound if the store has no
	// record of it.
	GetEvent(ctx context.Context, id string) (domain.CalendarEvent, error)

	// DeleteEvent removes an event by id. ErrNotFound when the id is unknown
	// or already deleted.
	DeleteEvent(ctx context.Context, id string) error

	// Offline reports whether this gateway answers from a fixed pre-declared
	// slot list instead of a real backing store. Result messages for such a
	// gateway must be labeled accordingly.
	Offline() bool
}

// WithTimeout bounds every gateway call that arrives without a deadline of
// its own. Calls that already carry a deadline keep it.
func WithTimeout(gw Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return gw
	}
	return &timeoutGateway{inner: gw, timeout: d}
}

type timeoutGateway struct {
	inner   Gateway
	timeout time.Duration
}

func (g *timeoutGateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *timeoutGateway) ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.ListEvents(ctx, start, end)
}

func (g *timeoutGateway) CreateEvent(ctx context.Context, draft domain.CalendarEvent) (domain.CalendarEvent, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.CreateEvent(ctx, draft)
}

func (g *timeoutGateway) GetEvent(ctx context.Context, id string) (domain.CalendarEvent, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.GetEvent(ctx, id)
}

func (g *timeoutGateway) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.DeleteEvent(ctx, id)
}

func (g *timeoutGateway) Offline() bool {
	return g.inner.Offline()
}
