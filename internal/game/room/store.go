package room

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchroom/internal/config"
)

// Store is the single source of truth for room membership. It owns the room
// map, the connection-to-room index, and the pending-deletion timers.
//
// All methods are safe for concurrent use. One store-wide mutex orders every
// read-then-write membership operation (join capacity checks, rejoin slot
// replacement, the cleanup timer's emptiness check), which subsumes the
// per-room mutual exclusion the lifecycle requires.
type Store struct {
	cfg    config.RoomsConfig
	codes  *Generator
	fanout *Fanout
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]*Room  // code → room
	index map[string]string // connID → code
}

// NewStore creates an empty Store.
//
// Precondition: fanout and logger must be non-nil; cfg must be validated.
func NewStore(cfg config.RoomsConfig, fanout *Fanout, logger *zap.Logger) *Store {
	return &Store{
		cfg:    cfg,
		codes:  NewGenerator(cfg.CodeLength, cfg.MaxCodeAttempts),
		fanout: fanout,
		logger: logger,
		rooms:  make(map[string]*Room),
		index:  make(map[string]string),
	}
}

// Create allocates a fresh room with the creator occupying slot 0.
//
// Precondition: connID and sessionID must be non-empty.
// Postcondition: Returns the room code, or ErrCodesExhausted (wrapped) if the
// code space could not yield a free code.
func (s *Store) Create(connID, sessionID, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.codes.Allocate(func(code string) bool {
		_, live := s.rooms[code]
		return live
	})
	if err != nil {
		return "", err
	}

	r := &Room{
		Code:      code,
		CreatedAt: time.Now(),
	}
	r.Slots[0] = &Participant{
		SessionID: sessionID,
		ConnID:    connID,
		Name:      name,
		Connected: true,
	}
	s.rooms[code] = r
	s.index[connID] = code

	s.logger.Info("room created",
		zap.String("code", code),
		zap.String("conn_id", connID),
	)

	s.fanout.NotifyRoom(r)
	return code, nil
}

// Join appends a participant to an existing room at the next free slot index.
//
// Postcondition: Returns nil on success, ErrRoomNotFound if no room has the
// code, or ErrRoomFull if both slots are occupied.
func (s *Store) Join(code, connID, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	idx := r.freeSlot()
	if idx < 0 {
		return ErrRoomFull
	}

	r.Slots[idx] = &Participant{
		SessionID: sessionID,
		ConnID:    connID,
		Name:      name,
		Connected: true,
	}
	s.index[connID] = code
	s.cancelPendingLocked(r)

	s.logger.Info("participant joined",
		zap.String("code", code),
		zap.String("conn_id", connID),
		zap.Int("slot", idx),
	)

	s.fanout.NotifyRoom(r)
	return nil
}

// Rejoin reattaches a returning participant to an existing room under a new
// connection identity. If the session previously occupied a slot, that slot's
// connection ID is replaced in place, preserving the index and any cached
// display name. Otherwise the participant is appended like a fresh join; the
// rejoin path doubles as session restoration after a page reload before any
// peer arrived.
//
// Postcondition: Returns nil on success, ErrRoomNotFound if the room is gone
// (caller should fall back to Create), or ErrRoomFull when no prior slot
// matches and the room is at capacity.
func (s *Store) Rejoin(code, connID, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	idx := r.slotBySession(sessionID)
	if idx >= 0 {
		p := r.Slots[idx]
		delete(s.index, p.ConnID)
		p.ConnID = connID
		p.Connected = true
		if p.Name == "" {
			p.Name = name
		}
	} else {
		idx = r.freeSlot()
		if idx < 0 {
			return ErrRoomFull
		}
		r.Slots[idx] = &Participant{
			SessionID: sessionID,
			ConnID:    connID,
			Name:      name,
			Connected: true,
		}
	}

	s.index[connID] = code
	s.cancelPendingLocked(r)

	s.logger.Info("participant rejoined",
		zap.String("code", code),
		zap.String("conn_id", connID),
		zap.Int("slot", idx),
	)

	s.fanout.NotifyRoom(r)
	return nil
}

// Leave removes the connection's participant from its room. The vacated slot
// becomes a hole; the remaining participant keeps its index. An emptied room
// is deleted immediately, with no grace period.
//
// Postcondition: Returns the room code for acknowledgment purposes, or
// ErrNotInRoom if the connection has no room association.
func (s *Store) Leave(connID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.index[connID]
	if !ok {
		return "", ErrNotInRoom
	}
	delete(s.index, connID)

	r, ok := s.rooms[code]
	if !ok {
		// Index entry outlived the room; nothing left to clean up.
		return code, nil
	}

	if idx := r.slotByConn(connID); idx >= 0 {
		r.Slots[idx] = nil
	}

	s.logger.Info("participant left",
		zap.String("code", code),
		zap.String("conn_id", connID),
	)

	if r.occupied() == 0 {
		s.removeRoomLocked(code)
		return code, nil
	}

	s.fanout.NotifyRoom(r)
	return code, nil
}

// Disconnect handles a transport-level connection loss. The participant's
// slot is retained (disconnected but may return); the index entry is removed
// immediately and a deferred deletion is scheduled for the grace period. A
// subsequent Rejoin cancels the deletion.
func (s *Store) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.index[connID]
	if !ok {
		return
	}
	delete(s.index, connID)

	r, ok := s.rooms[code]
	if !ok {
		return
	}

	if idx := r.slotByConn(connID); idx >= 0 {
		r.Slots[idx].Connected = false
	}

	s.schedulePendingLocked(r)

	s.logger.Info("participant disconnected, deletion scheduled",
		zap.String("code", code),
		zap.String("conn_id", connID),
		zap.Duration("grace_period", s.cfg.GracePeriod),
	)

	// The remaining peer sees the waiting placeholder for the duration of
	// the grace period rather than a stale opponent name.
	s.fanout.NotifyRoom(r)
}

// SetName updates the display name cached in the connection's slot, if any,
// and refreshes the peer's opponent view. A connection with no room
// association is a no-op; the gateway caches the name for a later join.
func (s *Store) SetName(connID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.index[connID]
	if !ok {
		return
	}
	r, ok := s.rooms[code]
	if !ok {
		return
	}
	if idx := r.slotByConn(connID); idx >= 0 {
		r.Slots[idx].Name = name
		s.fanout.NotifyRoom(r)
	}
}

// Lookup returns the code of the room the connection currently occupies.
func (s *Store) Lookup(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.index[connID]
	return code, ok
}

// Get returns a snapshot of the room's participants, or false if no room has
// the code. Snapshots are copies; mutating them does not affect the store.
func (s *Store) Get(code string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[code]
	if !ok {
		return Room{}, false
	}
	snap := Room{Code: r.Code, CreatedAt: r.CreatedAt}
	for i, p := range r.Slots {
		if p != nil {
			cp := *p
			snap.Slots[i] = &cp
		}
	}
	return snap, true
}

// Stats reports live room and connection counts for the stats endpoint.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := map[Status]int{}
	for _, r := range s.rooms {
		byStatus[r.Status()]++
	}
	return map[string]int{
		"rooms":       len(s.rooms),
		"connections": len(s.index),
		"waiting":     byStatus[StatusWaiting],
		"full":        byStatus[StatusFull],
	}
}

// Close cancels all pending deletion timers. Rooms are process-lifetime state,
// so there is nothing else to tear down.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		s.cancelPendingLocked(r)
	}
}

// schedulePendingLocked arms (or re-arms) the room's deferred deletion.
// Caller must hold s.mu.
func (s *Store) schedulePendingLocked(r *Room) {
	if r.pending != nil {
		r.pending.Stop()
	}
	r.pendingGen++
	gen := r.pendingGen
	code := r.Code
	r.pending = time.AfterFunc(s.cfg.GracePeriod, func() {
		s.reap(code, gen)
	})
}

// cancelPendingLocked cancels any scheduled deletion and invalidates timers
// already in flight. Caller must hold s.mu.
func (s *Store) cancelPendingLocked(r *Room) {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.pendingGen++
}

// reap is the deferred deletion check. It re-reads live presence under the
// store lock, so a rejoin racing the timer either bumped the generation
// (making this fire a no-op) or ran after the room was already deleted and
// observed ErrRoomNotFound.
func (s *Store) reap(code string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return
	}
	if r.pendingGen != gen {
		// A rejoin cancelled this deletion after the timer fired.
		return
	}
	if r.connectedCount() > 0 {
		return
	}

	s.removeRoomLocked(code)
	s.logger.Info("room reaped after grace period",
		zap.String("code", code),
	)
}

// removeRoomLocked unconditionally deletes the room and every index entry
// pointing at it. Caller must hold s.mu.
func (s *Store) removeRoomLocked(code string) {
	r, ok := s.rooms[code]
	if !ok {
		return
	}
	s.cancelPendingLocked(r)
	for connID, c := range s.index {
		if c == code {
			delete(s.index, connID)
		}
	}
	delete(s.rooms, code)

	s.logger.Info("room removed",
		zap.String("code", code),
	)
}
