package room

import (
	"sync"

	"go.uber.org/zap"
)

// EventUpdateOpponent carries the peer's display name, or WaitingPlaceholder
// when no connected peer is present.
const EventUpdateOpponent = "updateOpponent"

// Fanout tracks one Entity per live connection and emits opponent-identity
// updates after membership changes. It is injected into the Store so tests can
// observe notifications without a transport.
type Fanout struct {
	logger *zap.Logger

	mu       sync.RWMutex
	entities map[string]*Entity // connID → entity
}

// NewFanout creates an empty Fanout.
//
// Precondition: logger must be non-nil.
func NewFanout(logger *zap.Logger) *Fanout {
	return &Fanout{
		logger:   logger,
		entities: make(map[string]*Entity),
	}
}

// Register creates and tracks an Entity for a new connection. If the
// connection already has an entity it is closed and replaced.
//
// Precondition: connID must be non-empty; bufferSize > 0.
func (f *Fanout) Register(connID string, bufferSize int) *Entity {
	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.entities[connID]; ok {
		_ = old.Close()
	}
	e := NewEntity(connID, bufferSize)
	f.entities[connID] = e
	return e
}

// Unregister closes and removes the entity for a connection.
func (f *Fanout) Unregister(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entities[connID]; ok {
		_ = e.Close()
		delete(f.entities, connID)
	}
}

// CloseAll closes every tracked entity, unblocking transport write loops so
// their connections tear down. Used during gateway shutdown.
func (f *Fanout) CloseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for connID, e := range f.entities {
		_ = e.Close()
		delete(f.entities, connID)
	}
}

// Push delivers a single event to one connection. Events to unknown
// connections are dropped; a slow consumer drops the event rather than
// blocking the room core.
func (f *Fanout) Push(connID string, ev Event) {
	f.mu.RLock()
	e, ok := f.entities[connID]
	f.mu.RUnlock()

	if !ok {
		return
	}
	if err := e.Push(ev); err != nil {
		f.logger.Warn("dropping event",
			zap.String("conn_id", connID),
			zap.String("event", ev.Name),
			zap.Error(err),
		)
	}
}

// NotifyRoom recomputes the opponent view for every connected participant of
// the room and pushes an update to each. Disconnected participants are
// skipped; they receive a fresh view on rejoin.
func (f *Fanout) NotifyRoom(r *Room) {
	for i, p := range r.Slots {
		if p == nil || !p.Connected {
			continue
		}
		opponent := WaitingPlaceholder
		if peer := r.peerOf(i); peer != nil && peer.Connected && peer.Name != "" {
			opponent = peer.Name
		}
		f.Push(p.ConnID, Event{Name: EventUpdateOpponent, Data: opponent})
	}
}
