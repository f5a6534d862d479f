package room

import "errors"

var (
	// ErrRoomNotFound is returned when a join or rejoin targets a code with no live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join targets a room already at capacity.
	ErrRoomFull = errors.New("room full")
	// ErrNotInRoom is returned when a leave comes from a connection with no room association.
	ErrNotInRoom = errors.New("connection not in a room")
	// ErrCodesExhausted is returned when code allocation fails after bounded retries.
	ErrCodesExhausted = errors.New("room code space exhausted")
)
