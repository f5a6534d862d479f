package ws

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchroom/internal/game/room"
)

// dispatch routes one inbound envelope to its handler. Handlers run on the
// connection's read goroutine, so events from a single client are processed
// strictly in order. All room-state errors are translated into outbound
// acknowledgments here; none propagate to the transport.
func (g *Gateway) dispatch(c *client, env Envelope) {
	switch env.Event {
	case EventSetUsername:
		g.handleSetUsername(c, env.Data)
	case EventCreateRoom:
		g.handleCreateRoom(c)
	case EventJoinRoom:
		g.handleJoinRoom(c, env.Data)
	case EventRejoinRoom:
		g.handleRejoinRoom(c, env.Data)
	case EventLeaveRoom:
		g.handleLeaveRoom(c)
	default:
		c.push(room.Event{Name: EventError, Data: "unknown event"})
	}
}

func (g *Gateway) handleSetUsername(c *client, name string) {
	if name == "" {
		c.push(room.Event{Name: EventError, Data: "username must not be empty"})
		return
	}
	c.name = name
	g.store.SetName(c.connID, name)
	c.push(room.Event{Name: EventUsernameSet, Data: name})

	g.logger.Debug("username set",
		zap.String("conn_id", c.connID),
		zap.String("username", name),
	)
}

func (g *Gateway) handleCreateRoom(c *client) {
	code, err := g.store.Create(c.connID, c.sessionID, c.name)
	if err != nil {
		g.logger.Error("creating room",
			zap.String("conn_id", c.connID),
			zap.Error(err),
		)
		c.push(room.Event{Name: EventError, Data: "could not create room"})
		return
	}
	c.push(room.Event{Name: EventRoomCreated, Data: code})
	c.push(room.Event{Name: EventRoomJoined, Data: code})
}

func (g *Gateway) handleJoinRoom(c *client, code string) {
	if code == "" {
		c.push(room.Event{Name: EventError, Data: "room code must not be empty"})
		return
	}
	switch err := g.store.Join(code, c.connID, c.sessionID, c.name); {
	case err == nil:
		c.push(room.Event{Name: EventRoomJoined, Data: code})
	case errors.Is(err, room.ErrRoomFull):
		c.push(room.Event{Name: EventRoomFull})
	case errors.Is(err, room.ErrRoomNotFound):
		c.push(room.Event{Name: EventRoomNotFound, Data: code})
	default:
		g.logger.Error("joining room",
			zap.String("conn_id", c.connID),
			zap.String("code", code),
			zap.Error(err),
		)
		c.push(room.Event{Name: EventError, Data: "could not join room"})
	}
}

func (g *Gateway) handleRejoinRoom(c *client, code string) {
	if code == "" {
		c.push(room.Event{Name: EventError, Data: "room code must not be empty"})
		return
	}
	switch err := g.store.Rejoin(code, c.connID, c.sessionID, c.name); {
	case err == nil:
		c.push(room.Event{Name: EventRoomJoined, Data: code})
	case errors.Is(err, room.ErrRoomNotFound):
		// The room did not survive the grace period. The client falls back
		// to createRoom on receipt.
		c.push(room.Event{Name: EventRoomNotFound, Data: code})
	case errors.Is(err, room.ErrRoomFull):
		c.push(room.Event{Name: EventRoomFull})
	default:
		g.logger.Error("rejoining room",
			zap.String("conn_id", c.connID),
			zap.String("code", code),
			zap.Error(err),
		)
		c.push(room.Event{Name: EventError, Data: "could not rejoin room"})
	}
}

func (g *Gateway) handleLeaveRoom(c *client) {
	code, err := g.store.Leave(c.connID)
	if err != nil {
		// Leaving while not in a room is a no-op toward the client.
		g.logger.Debug("leave without room",
			zap.String("conn_id", c.connID),
		)
		return
	}
	c.push(room.Event{Name: EventRoomLeft, Data: code})
}
