package room

import (
	"fmt"
	"sync"
)

// Event is an outbound notification destined for a single connection.
type Event struct {
	// Name is the wire event name, e.g. "updateOpponent".
	Name string
	// Data is the event payload.
	Data string
}

// Entity routes push calls to a Go channel, bridging the room core to the
// transport layer's write loop. One Entity exists per live connection.
type Entity struct {
	connID string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewEntity creates an Entity for the given connection ID.
//
// Precondition: connID must be non-empty.
// Postcondition: Returns an Entity with an open events channel.
func NewEntity(connID string, bufferSize int) *Entity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Entity{
		connID: connID,
		events: make(chan Event, bufferSize),
	}
}

// ConnID returns the connection identifier this entity serves.
func (e *Entity) ConnID() string {
	return e.connID
}

// Push enqueues an event for delivery.
//
// Postcondition: The event is enqueued, or an error if the entity is closed or full.
func (e *Entity) Push(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("entity %s is closed", e.connID)
	}
	select {
	case e.events <- ev:
		return nil
	default:
		return fmt.Errorf("entity %s event buffer full", e.connID)
	}
}

// Events returns the read-only events channel. The transport write loop reads
// from this channel and serializes events onto the wire in order.
func (e *Entity) Events() <-chan Event {
	return e.events
}

// Close marks the entity as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (e *Entity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *Entity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
