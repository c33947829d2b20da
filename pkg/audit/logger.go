package audit

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *Event) error

	// ListByResource returns the events recorded for a resource, oldest first
	ListByResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Event, error)
}

// NoOpLogger is a logger that does nothing (used when no logger is configured)
type NoOpLogger struct{}

func (NoOpLogger) Log(ctx context.Context, event *Event) error { return nil }

func (NoOpLogger) ListByResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Event, error) {
	return nil, nil
}

// MultiLogger writes every event to all of its loggers; reads go to the first
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger fanning out to the given loggers
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log writes to every logger and joins their errors
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListByResource reads from the first configured logger
func (m *MultiLogger) ListByResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Event, error) {
	if len(m.loggers) == 0 {
		return nil, nil
	}
	return m.loggers[0].ListByResource(ctx, resourceType, resourceID)
}

// MemoryLogger keeps events in process
type MemoryLogger struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

// NewMemoryLogger creates an empty in-memory audit logger
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) Log(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	m.events = append(m.events, *event)
	return nil
}

func (m *MemoryLogger) ListByResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Events returns a copy of everything logged so far
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns the logged events of one type
func (m *MemoryLogger) EventsOfType(eventType EventType) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
