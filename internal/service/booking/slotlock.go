package booking

import "sync"

// slotLocks serializes bookings that target the same slot within this
// process. The calendar check-then-create sequence is not atomic on its
// own; holding the slot's mutex across both steps means two concurrent
// requests for the same start time cannot interleave between the
// availability read and the event insert. Distinct slots proceed in
// parallel.
type slotLocks struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{slots: make(map[string]*slotLock)}
}

// acquire blocks until the named slot is free and returns its release
// function. Entries are reference counted and removed once the last
// holder releases, so the map does not grow with booking history.
func (l *slotLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.slots[key]
	if !ok {
		entry = &slotLock{}
		l.slots[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.slots, key)
		}
		l.mu.Unlock()
	}
}
