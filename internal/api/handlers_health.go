// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package api

import (
	"net/http"
	"time"

	"github.com/plastiwood/stocksync/internal/models"
)

// Health reports server status, connected channel count and collection sizes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	items, bills := h.store.Counts()

	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:           "healthy",
		Version:          Version,
		ConnectedClients: clients,
		InventoryItems:   items,
		Bills:            bills,
		Uptime:           time.Since(h.startTime).Seconds(),
	})
}

// Channels lists the advisory identities of connected channels, for
// diagnostics only.
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Realtime service unavailable", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"connected":  h.hub.ClientCount(),
		"identities": h.hub.Identities(),
	})
}
