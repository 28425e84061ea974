// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package store

import "github.com/plastiwood/stocksync/internal/models"

// Seed loads the sample catalogue if the inventory is empty. Returns the
// number of items added. The emptiness check and the inserts happen under
// one lock so concurrent callers cannot both seed.
func (s *Store) Seed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inventory) > 0 {
		return 0
	}

	samples := []models.InventoryItem{
		{Name: "Steel Rebar", Description: "TMT Steel Rebar", HSN: "72142000", Size: "12mm", Colour: "Silver", Unit: "kg", Quantity: 1000, MinStock: 500, Price: 65.00, GST: 18},
		{Name: "Portland Cement", Description: "OPC 53 Grade Cement", HSN: "25232900", Size: "50kg", Colour: "Grey", Unit: "bag", Quantity: 500, MinStock: 200, Price: 350.00, GST: 28},
		{Name: "Plywood", Description: "Commercial Plywood", HSN: "44121300", Size: "18mm", Colour: "Brown", Unit: "pcs", Quantity: 100, MinStock: 50, Price: 1800.00, GST: 18},
		{Name: "Concrete Mix", Description: "Ready Mix Concrete", HSN: "38244090", Size: "M25", Colour: "Grey", Unit: "m3", Quantity: 50, MinStock: 20, Price: 4500.00, GST: 18},
		{Name: "Plastiwood Deck Board", Description: "Premium composite deck board", HSN: "39259000", Size: "6ft", Colour: "Brown", Unit: "pcs", Quantity: 150, MinStock: 50, Price: 2500.00, GST: 18},
	}
	for _, item := range samples {
		item.ID = s.nextItemID
		s.nextItemID++
		item.CreatedAt = s.now()
		item.UpdatedAt = item.CreatedAt
		s.inventory = append(s.inventory, item)
	}
	return len(samples)
}
