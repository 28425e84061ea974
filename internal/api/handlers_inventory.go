// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package api

import (
	"errors"
	"net/http"

	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/protocol"
	"github.com/plastiwood/stocksync/internal/store"
)

// ListInventory returns the full inventory in insertion order.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.store.Inventory())
}

// CreateInventoryItem adds an item and broadcasts the addition to every
// channel, including the caller's own.
func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var item models.InventoryItem
	if !decodeAndValidate(w, r, &item) {
		return
	}

	created := h.store.AddItem(item)

	if h.hub != nil {
		h.hub.BroadcastInventoryUpdated(protocol.InventoryUpdate{
			Action: protocol.ActionAdd,
			Item:   &created,
		})
	}
	respondSuccess(w, http.StatusCreated, created)
}

// UpdateInventoryItem replaces an item and broadcasts the update.
func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var item models.InventoryItem
	if !decodeAndValidate(w, r, &item) {
		return
	}
	item.ID = id

	updated, err := h.store.UpdateItem(item)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Inventory item not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update item", nil)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastInventoryUpdated(protocol.InventoryUpdate{
			Action: protocol.ActionUpdate,
			Item:   &updated,
		})
	}
	respondSuccess(w, http.StatusOK, updated)
}

// DeleteInventoryItem removes an item and broadcasts the deletion.
func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteItem(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Inventory item not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete item", nil)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastInventoryUpdated(protocol.InventoryUpdate{
			Action: protocol.ActionDelete,
			ItemID: id,
		})
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"success": true})
}
