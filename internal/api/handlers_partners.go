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

// Purchases, customers and suppliers are plain CRUD without broadcasts:
// only inventory and bills are shared working state across terminals.

// ListPurchases returns the purchase log, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.store.Purchases())
}

// CreatePurchase records an inbound order and restocks referenced items.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var p models.Purchase
	if !decodeAndValidate(w, r, &p) {
		return
	}

	created := h.store.CreatePurchase(p)

	// Restocking changes quantities, so other terminals need the result.
	if h.hub != nil {
		h.hub.BroadcastInventoryRefresh(h.store.Inventory())
	}
	respondSuccess(w, http.StatusCreated, created)
}

// UpdatePurchase replaces a purchase record.
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var p models.Purchase
	if !decodeAndValidate(w, r, &p) {
		return
	}
	p.ID = id

	updated, err := h.store.UpdatePurchase(p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Purchase not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update purchase", nil)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}

// DeletePurchase removes a purchase record.
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePurchase(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Purchase not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete purchase", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"success": true})
}

// ListCustomers returns all customers in insertion order.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.store.Customers())
}

// CreateCustomer adds a customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if !decodeAndValidate(w, r, &c) {
		return
	}
	respondSuccess(w, http.StatusCreated, h.store.AddCustomer(c))
}

// UpdateCustomer replaces a customer record.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var c models.Customer
	if !decodeAndValidate(w, r, &c) {
		return
	}
	c.ID = id

	updated, err := h.store.UpdateCustomer(c)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update customer", nil)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}

// ListSuppliers returns all suppliers in insertion order.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.store.Suppliers())
}

// CreateSupplier adds a supplier.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var s models.Supplier
	if !decodeAndValidate(w, r, &s) {
		return
	}
	respondSuccess(w, http.StatusCreated, h.store.AddSupplier(s))
}

// UpdateSupplier replaces a supplier record.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var s models.Supplier
	if !decodeAndValidate(w, r, &s) {
		return
	}
	s.ID = id

	updated, err := h.store.UpdateSupplier(s)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update supplier", nil)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}
