// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package api provides the HTTP handlers and router. Every successful
// mutation on inventory or bills triggers a broadcast through the hub after
// the store commit returns, never before.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/plastiwood/stocksync/internal/config"
	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/store"
	"github.com/plastiwood/stocksync/internal/validation"
	ws "github.com/plastiwood/stocksync/internal/websocket"
)

// Version is the reported application version.
const Version = "1.0.0"

// Handler bundles the dependencies of all HTTP endpoints.
type Handler struct {
	store     *store.Store
	hub       *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a handler. The hub may be nil in tests that do not
// exercise broadcasting.
func NewHandler(st *store.Store, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		store:     st,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
	}
}

// respondJSON sends a JSON response with the standard envelope.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess sends a success envelope around data.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeAndValidate parses the request body into dst and validates it.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. On failure it writes the error
// response and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid identifier", nil)
		return 0, false
	}
	return id, true
}

// getUpgrader creates a WebSocket upgrader with origin checking.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates connection origins against the configured
// CORS list. Non-browser clients without an Origin header are allowed; the
// channel carries no credentials and identity is advisory only.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.config == nil {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and registers the channel with the hub.
// No handshake payload is required before the channel receives broadcasts.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("websocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Realtime service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
