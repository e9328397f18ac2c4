package daemon

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// DefaultHistoryLength is the event log capacity when none is configured.
const DefaultHistoryLength = 256

// Journal persists recorded events.
type Journal interface {
	Append(ev model.Event) error
}

// EventLog keeps the most recent delivered events, oldest first.
type EventLog struct {
	mu sync.RWMutex

	events   []model.Event
	capacity int
	journal  Journal

	now func() time.Time
}

// NewEventLog creates a log holding at most capacity events. A capacity of
// zero disables recording.
func NewEventLog(capacity int) *EventLog {
	if capacity < 0 {
		capacity = DefaultHistoryLength
	}
	return &EventLog{
		capacity: capacity,
		now:      time.Now,
	}
}

// Add records an event and returns it with its id and time filled in.
func (l *EventLog) Add(kind model.CallbackKind, dpy model.DisplayHandle, value int64) (model.Event, error) {
	now := l.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return model.Event{}, err
	}

	ev := model.Event{
		ID:       id.String(),
		Kind:     kind,
		KindName: kind.String(),
		Display:  dpy,
		Value:    value,
		Time:     now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity == 0 {
		return ev, nil
	}
	l.events = append(l.events, ev)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}

	// Written under the lock so the journal keeps delivery order.
	if l.journal != nil {
		if err := l.journal.Append(ev); err != nil {
			return ev, fmt.Errorf("journal event %s: %w", ev.ID, err)
		}
	}
	return ev, nil
}

// SetJournal makes every recorded event also be appended to j. Nil stops
// journaling.
func (l *EventLog) SetJournal(j Journal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal = j
}

// Restore seeds the log with previously recorded events, oldest first,
// keeping only the newest that fit.
func (l *EventLog) Restore(events []model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events[:0:0], events...)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = l.events[over:]
	}
}

// Recent returns up to n of the newest events, oldest first. n <= 0
// returns everything retained.
func (l *EventLog) Recent(n int) []model.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if n > 0 && n < len(l.events) {
		start = len(l.events) - n
	}
	return append([]model.Event(nil), l.events[start:]...)
}

// ByDisplay returns the retained events of one display, oldest first.
func (l *EventLog) ByDisplay(dpy model.DisplayHandle) []model.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Event
	for _, ev := range l.events {
		if ev.Display == dpy {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns the number of retained events.
func (l *EventLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// SetCapacity changes the capacity, dropping the oldest events if needed.
func (l *EventLog) SetCapacity(capacity int) {
	if capacity < 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.capacity = capacity
	if over := len(l.events) - capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}
