// Package room provides the pairing core of the matchroom server: room
// creation and code allocation, capacity-bounded joining, disconnect-triggered
// grace-period cleanup, and reconnection reconciliation.
package room

import (
	"time"
)

// Capacity is the maximum number of participants a room can hold.
const Capacity = 2

// WaitingPlaceholder is the opponent name pushed to a participant whose peer
// slot is empty or disconnected.
const WaitingPlaceholder = "Waiting for opponent..."

// Status describes the externally observable lifecycle state of a room.
type Status string

const (
	// StatusEmpty means the room has no occupied slots.
	StatusEmpty Status = "empty"
	// StatusWaiting means exactly one slot is occupied.
	StatusWaiting Status = "waiting_for_opponent"
	// StatusFull means both slots are occupied.
	StatusFull Status = "full"
)

// Participant is one occupant of a room slot.
//
// SessionID is the stable logical identity the client persists across page
// reloads; ConnID is the volatile transport-assigned identity that changes on
// every reconnect. Reconciliation on rejoin is keyed on SessionID.
type Participant struct {
	// SessionID is the client-supplied stable session identifier.
	SessionID string
	// ConnID is the current transport connection identifier.
	ConnID string
	// Name is the client-declared display name. Unauthenticated.
	Name string
	// Connected reports whether the participant currently has a live connection.
	Connected bool
}

// Room is the pairing unit holding up to two participants under one code.
// Rooms are plain data; all mutation happens under the owning Store's lock.
type Room struct {
	// Code is the short join code, unique among live rooms.
	Code string
	// Slots holds the participants in insertion order. A nil entry is a hole
	// left by an explicit leave; slot indexes are stable across reconnection.
	Slots [Capacity]*Participant
	// CreatedAt is when the room was allocated.
	CreatedAt time.Time

	// pendingGen invalidates stale cleanup timers. Each scheduled deletion
	// captures the current generation; a fire with a stale generation is a no-op.
	pendingGen uint64
	// pending is the armed deletion timer, nil when no deletion is scheduled.
	pending *time.Timer
}

// Status returns the room's observable lifecycle state.
func (r *Room) Status() Status {
	switch r.occupied() {
	case 0:
		return StatusEmpty
	case 1:
		return StatusWaiting
	default:
		return StatusFull
	}
}

// occupied counts non-hole slots.
func (r *Room) occupied() int {
	n := 0
	for _, p := range r.Slots {
		if p != nil {
			n++
		}
	}
	return n
}

// freeSlot returns the lowest unoccupied slot index, or -1 if the room is full.
func (r *Room) freeSlot() int {
	for i, p := range r.Slots {
		if p == nil {
			return i
		}
	}
	return -1
}

// slotBySession returns the slot index occupied by the given session, or -1.
func (r *Room) slotBySession(sessionID string) int {
	for i, p := range r.Slots {
		if p != nil && p.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// slotByConn returns the slot index occupied by the given connection, or -1.
func (r *Room) slotByConn(connID string) int {
	for i, p := range r.Slots {
		if p != nil && p.ConnID == connID {
			return i
		}
	}
	return -1
}

// connectedCount counts participants with a live connection.
func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Slots {
		if p != nil && p.Connected {
			n++
		}
	}
	return n
}

// peerOf returns the participant occupying the other slot, or nil.
func (r *Room) peerOf(idx int) *Participant {
	for i, p := range r.Slots {
		if i != idx && p != nil {
			return p
		}
	}
	return nil
}
