// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package models defines the domain types shared between the store, the
// HTTP API and the real-time protocol.
package models

import "time"

// InventoryItem is a single stocked product.
type InventoryItem struct {
	ID          int       `json:"id"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description"`
	HSN         string    `json:"hsn" validate:"max=50"`
	Size        string    `json:"size" validate:"max=100"`
	Colour      string    `json:"colour" validate:"max=100"`
	Unit        string    `json:"unit" validate:"max=50"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	MinStock    int       `json:"minStock" validate:"gte=0"`
	Price       float64   `json:"price" validate:"gte=0"`
	GST         float64   `json:"gst" validate:"gte=0,lte=100"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LowStock reports whether the item has fallen below its minimum stock level.
func (i InventoryItem) LowStock() bool {
	return i.Quantity < i.MinStock
}
