// Package shared holds types used by more than one domain package.
package shared

import "time"

// DomainEvent is a fact raised by an aggregate while it changes
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventLog collects the events an aggregate raises during one operation.
// Embed it; the zero value is ready to use.
type EventLog struct {
	pending []DomainEvent
}

// Record appends an event to the log
func (l *EventLog) Record(event DomainEvent) {
	l.pending = append(l.pending, event)
}

// Events drains the log
func (l *EventLog) Events() []DomainEvent {
	out := l.pending
	l.pending = nil
	return out
}
