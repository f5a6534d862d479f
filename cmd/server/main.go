// Package main provides the matchroom server binary: a websocket gateway in
// front of the in-memory room pairing core.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchroom/internal/config"
	"github.com/cory-johannsen/matchroom/internal/frontend/ws"
	"github.com/cory-johannsen/matchroom/internal/game/room"
	"github.com/cory-johannsen/matchroom/internal/observability"
	"github.com/cory-johannsen/matchroom/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting matchroom server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("grace_period", cfg.Rooms.GracePeriod),
	)

	fanout := room.NewFanout(logger)
	store := room.NewStore(cfg.Rooms, fanout, logger)
	gateway := ws.NewGateway(cfg, store, fanout, logger)

	lc := server.NewLifecycle(logger)

	storeDone := make(chan struct{})
	lc.Add("room-store", &server.FuncService{
		StartFn: func() error {
			<-storeDone
			return nil
		},
		StopFn: func() {
			store.Close()
			close(storeDone)
		},
	})
	lc.Add("ws-gateway", &server.FuncService{
		StartFn: gateway.ListenAndServe,
		StopFn:  gateway.Stop,
	})

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
