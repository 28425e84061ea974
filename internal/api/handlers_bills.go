// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package api

import (
	"errors"
	"net/http"

	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/store"
)

// ListBills returns the bill log, newest first.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.store.Bills())
}

// CreateBill commits a sale and broadcasts it. Two events go out in order:
// bill:created first, then an inventory:refresh carrying the post-sale
// snapshot, because billing decrements stock as part of the commit.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var bill models.Bill
	if !decodeAndValidate(w, r, &bill) {
		return
	}

	created, err := h.store.CreateBill(bill)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Bill references an unknown inventory item", nil)
		case errors.Is(err, store.ErrInsufficientStock):
			respondError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "Not enough stock for one or more items", nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create bill", nil)
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastBillCreated(created)
		h.hub.BroadcastInventoryRefresh(h.store.Inventory())
	}
	respondSuccess(w, http.StatusCreated, created)
}

// UpdateBill replaces a bill's mutable fields. No broadcast: payment
// bookkeeping does not affect any other terminal's working state.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var bill models.Bill
	if !decodeAndValidate(w, r, &bill) {
		return
	}
	bill.ID = id

	updated, err := h.store.UpdateBill(bill)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Bill not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update bill", nil)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}

// DeleteBill removes a bill from the log.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteBill(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Bill not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete bill", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"success": true})
}
