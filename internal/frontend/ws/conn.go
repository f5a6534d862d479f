package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/matchroom/internal/config"
	"github.com/cory-johannsen/matchroom/internal/game/room"
)

// client is the server-side state of one websocket connection.
//
// connID is minted by the gateway on accept and dies with the connection;
// sessionID is the stable identity the client persists and replays across
// reconnects. The display name is cached here so a setUsername before joining
// a room survives until the join.
type client struct {
	connID    string
	sessionID string
	name      string

	sock   *websocket.Conn
	entity *room.Entity
	cfg    config.WebsocketConfig
	logger *zap.Logger
}

// writePump serializes entity events onto the websocket in order and sends
// keepalive pings. It exits when the entity is closed, then closes the socket.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case ev, ok := <-c.entity.Events():
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(Envelope{Event: ev.Name, Data: ev.Data})
			if err != nil {
				c.logger.Error("marshalling event",
					zap.String("conn_id", c.connID),
					zap.String("event", ev.Name),
					zap.Error(err),
				)
				continue
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound envelopes and dispatches them until the connection
// drops. The connection's room association is torn down on exit, which starts
// the grace-period cleanup.
func (c *client) readPump(g *Gateway) {
	defer func() {
		g.store.Disconnect(c.connID)
		g.fanout.Unregister(c.connID)
		_ = c.sock.Close()

		g.logger.Info("client disconnected",
			zap.String("conn_id", c.connID),
			zap.String("session_id", c.sessionID),
		)
	}()

	c.sock.SetReadLimit(c.cfg.ReadLimit)
	_ = c.sock.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, payload, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read error",
					zap.String("conn_id", c.connID),
					zap.Error(err),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			c.push(room.Event{Name: EventError, Data: "malformed message"})
			continue
		}
		g.dispatch(c, env)
	}
}

// push enqueues an outbound event for this client, logging drops.
func (c *client) push(ev room.Event) {
	if err := c.entity.Push(ev); err != nil {
		c.logger.Warn("dropping outbound event",
			zap.String("conn_id", c.connID),
			zap.String("event", ev.Name),
			zap.Error(err),
		)
	}
}
