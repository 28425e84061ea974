// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package main is the entry point for the StockSync server.
//
// StockSync keeps every billing terminal in a shop looking at the same
// inventory: each committed change is broadcast over a websocket channel
// to all connected terminals, which fold the events into their local
// working state.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file and environment (Koanf v2)
//  2. Store: in-memory inventory, bill and partner collections
//  3. Broadcast hub: fan-out of committed changes to connected terminals
//  4. HTTP server: REST API plus the websocket endpoint
//  5. Supervision tree: hub and HTTP server under suture
//
// Configuration sources, highest priority last:
//   - Built-in defaults
//   - Config file (CONFIG_PATH, ./config.yaml, /etc/stocksync/config.yaml)
//   - Environment variables with the STOCKSYNC_ prefix
//
// The server shuts down gracefully on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get the configured
// shutdown timeout, and the hub closes every channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastiwood/stocksync/internal/api"
	"github.com/plastiwood/stocksync/internal/config"
	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/store"
	"github.com/plastiwood/stocksync/internal/supervisor"
	"github.com/plastiwood/stocksync/internal/supervisor/services"
	"github.com/plastiwood/stocksync/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("version", api.Version).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting StockSync")

	st := store.New()
	if cfg.Store.SeedSampleData {
		st.Seed()
	}

	hub := websocket.NewHub(func() []models.InventoryItem { return st.Inventory() })

	handler := api.NewHandler(st, hub, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: handler.Routes(),
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
