// Package ws provides the websocket gateway that carries the room pairing
// protocol between clients and the room core.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/matchroom/internal/config"
	"github.com/cory-johannsen/matchroom/internal/game/room"
)

// Gateway accepts websocket connections on an HTTP listener and dispatches
// their events to the room store. It implements the server.Service contract.
type Gateway struct {
	cfg    config.Config
	store  *room.Store
	fanout *room.Fanout
	logger *zap.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	mu       sync.Mutex
	running  bool
}

// NewGateway creates a websocket gateway.
//
// Precondition: cfg must be validated; store, fanout, and logger must be non-nil.
func NewGateway(cfg config.Config, store *room.Store, fanout *room.Fanout, logger *zap.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		store:  store,
		fanout: fanout,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Pairing codes are the access control; origins are not.
				return true
			},
		},
	}
}

// ListenAndServe starts the HTTP listener and blocks until Stop is called.
//
// Precondition: The gateway must not already be running.
// Postcondition: The listener is closed when this method returns.
func (g *Gateway) ListenAndServe() error {
	start := time.Now()

	srv := &http.Server{
		Addr:         g.cfg.Server.Addr(),
		Handler:      g.routes(),
		ReadTimeout:  g.cfg.Server.ReadTimeout,
		WriteTimeout: g.cfg.Server.WriteTimeout,
	}

	g.mu.Lock()
	g.httpSrv = srv
	g.running = true
	g.mu.Unlock()

	g.logger.Info("websocket gateway listening",
		zap.String("addr", srv.Addr),
		zap.Duration("startup", time.Since(start)),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	}
	return nil
}

// Stop shuts down the HTTP server and closes every live websocket session.
// Upgraded conns are hijacked and invisible to Shutdown, so the sessions are
// torn down by closing their fanout entities: each write pump drains, sends a
// close frame, and closes its socket, which unwinds the read pump through the
// usual disconnect path.
//
// Postcondition: The listener no longer accepts connections.
func (g *Gateway) Stop() {
	g.mu.Lock()
	srv := g.httpSrv
	running := g.running
	g.running = false
	g.mu.Unlock()

	if !running || srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		g.logger.Warn("gateway shutdown", zap.Error(err))
	}
	g.fanout.CloseAll()
	_ = srv.Close()
}

// routes builds the gateway's HTTP handler.
func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.serveWS)
	mux.HandleFunc("/healthz", g.handleHealthz)
	mux.HandleFunc("/stats", g.handleStats)
	return mux
}

// serveWS upgrades an HTTP request to a websocket session.
//
// The client may replay its persisted session identifier via the "session"
// query parameter; a fresh one is minted otherwise and echoed back in the
// initial "session" event so the client can persist it.
func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sock, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("upgrading connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	connID := uuid.NewString()
	c := &client{
		connID:    connID,
		sessionID: sessionID,
		sock:      sock,
		entity:    g.fanout.Register(connID, g.cfg.Rooms.EventBuffer),
		cfg:       g.cfg.Websocket,
		logger:    g.logger,
	}

	g.logger.Info("client connected",
		zap.String("conn_id", connID),
		zap.String("session_id", sessionID),
		zap.String("remote_addr", r.RemoteAddr),
	)

	go c.writePump()
	c.push(room.Event{Name: EventSession, Data: sessionID})
	go c.readPump(g)
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (g *Gateway) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g.store.Stats()); err != nil {
		g.logger.Error("encoding stats", zap.Error(err))
	}
}
