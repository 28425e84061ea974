// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package syncclient

import (
	"fmt"
	"sync"

	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/protocol"
)

// RenderHooks receives the merged state after each reconciliation so a
// presentation layer can redraw. Hooks are called with copies and only
// after the merge has fully committed; a nil hook set disables rendering.
type RenderHooks struct {
	Inventory func([]models.InventoryItem)
	Bills     func([]models.Bill)
}

// Reconciler folds broadcast events into a terminal's local working
// state. Every merge is idempotent: replaying an event, receiving an
// add for an item already present, an update for one that is not, or a
// delete for one already gone all converge to the same state.
type Reconciler struct {
	mu        sync.Mutex
	inventory []models.InventoryItem
	bills     []models.Bill
	hooks     RenderHooks
	notifier  *Notifier
}

// NewReconciler creates a Reconciler. Both hooks and notifier are
// optional.
func NewReconciler(hooks RenderHooks, notifier *Notifier) *Reconciler {
	return &Reconciler{hooks: hooks, notifier: notifier}
}

// HandleEvent dispatches one broadcast event. Unknown event types are
// ignored so protocol additions never break older terminals.
func (r *Reconciler) HandleEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventInventoryUpdated:
		upd, err := protocol.DecodeInventoryUpdate(ev)
		if err != nil {
			logging.Warn().Err(err).Msg("Dropping malformed inventory update")
			return
		}
		r.applyInventoryUpdate(upd)

	case protocol.EventInventoryRefresh:
		ref, err := protocol.DecodeInventoryRefresh(ev)
		if err != nil {
			logging.Warn().Err(err).Msg("Dropping malformed inventory refresh")
			return
		}
		r.applyInventoryRefresh(ref.Inventory)

	case protocol.EventBillCreated:
		bc, err := protocol.DecodeBillCreated(ev)
		if err != nil {
			logging.Warn().Err(err).Msg("Dropping malformed bill event")
			return
		}
		r.applyBillCreated(bc.Bill)

	default:
		logging.Debug().Str("type", ev.Type).Msg("Ignoring unknown event type")
	}
}

// applyInventoryUpdate merges a single-item change.
func (r *Reconciler) applyInventoryUpdate(upd *protocol.InventoryUpdate) {
	r.mu.Lock()

	changed := false
	switch upd.Action {
	case protocol.ActionAdd:
		// Duplicate-safe: a replayed add for a known identifier is a no-op.
		if r.indexOfLocked(upd.Item.ID) < 0 {
			r.inventory = append(r.inventory, *upd.Item)
			changed = true
		}

	case protocol.ActionUpdate:
		// Replace in place; an update for an unknown identifier is a no-op.
		if i := r.indexOfLocked(upd.Item.ID); i >= 0 {
			r.inventory[i] = *upd.Item
			changed = true
		}

	case protocol.ActionDelete:
		// Deleting an absent item is a no-op, not an error.
		if i := r.indexOfLocked(upd.ItemID); i >= 0 {
			r.inventory = append(r.inventory[:i], r.inventory[i+1:]...)
			changed = true
		}
	}

	snapshot := r.inventorySnapshotLocked()
	r.mu.Unlock()

	if !changed {
		return
	}
	r.renderInventory(snapshot)
	r.notifyInventory(upd)
}

// applyInventoryRefresh replaces the full inventory with an
// authoritative snapshot.
func (r *Reconciler) applyInventoryRefresh(items []models.InventoryItem) {
	r.mu.Lock()
	r.inventory = make([]models.InventoryItem, len(items))
	copy(r.inventory, items)
	snapshot := r.inventorySnapshotLocked()
	r.mu.Unlock()

	r.renderInventory(snapshot)
}

// applyBillCreated prepends a bill to the local log unless it is
// already present.
func (r *Reconciler) applyBillCreated(bill models.Bill) {
	r.mu.Lock()
	for i := range r.bills {
		if r.bills[i].ID == bill.ID {
			// Replayed broadcast; the log already has it.
			r.mu.Unlock()
			return
		}
	}
	r.bills = append([]models.Bill{bill}, r.bills...)
	snapshot := make([]models.Bill, len(r.bills))
	copy(snapshot, r.bills)
	r.mu.Unlock()

	if r.hooks.Bills != nil {
		r.hooks.Bills(snapshot)
	}
	if r.notifier != nil {
		r.notifier.Notify(
			"Bill created",
			fmt.Sprintf("Bill #%d for %s", bill.ID, bill.Customer.Name),
			SeverityInfo,
		)
	}
}

// Inventory returns a copy of the local inventory, insertion order.
func (r *Reconciler) Inventory() []models.InventoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inventorySnapshotLocked()
}

// Bills returns a copy of the local bill log, newest first.
func (r *Reconciler) Bills() []models.Bill {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Bill, len(r.bills))
	copy(out, r.bills)
	return out
}

func (r *Reconciler) indexOfLocked(id int) int {
	for i := range r.inventory {
		if r.inventory[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) inventorySnapshotLocked() []models.InventoryItem {
	out := make([]models.InventoryItem, len(r.inventory))
	copy(out, r.inventory)
	return out
}

func (r *Reconciler) renderInventory(items []models.InventoryItem) {
	if r.hooks.Inventory != nil {
		r.hooks.Inventory(items)
	}
}

func (r *Reconciler) notifyInventory(upd *protocol.InventoryUpdate) {
	if r.notifier == nil {
		return
	}
	switch upd.Action {
	case protocol.ActionAdd:
		r.notifier.Notify("Item added", upd.Item.Name, SeverityInfo)
	case protocol.ActionUpdate:
		r.notifier.Notify("Item updated", upd.Item.Name, SeverityInfo)
	case protocol.ActionDelete:
		r.notifier.Notify("Item removed", fmt.Sprintf("Item #%d", upd.ItemID), SeverityInfo)
	}
}
