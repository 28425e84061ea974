// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package protocol defines the closed event vocabulary exchanged between the
// broadcast hub and connected clients.
//
// Every message on the wire is an Event envelope {type, data}. Events are
// fire-and-forget: they carry no sequence number and no acknowledgment, so
// consumers must treat every event as possibly duplicated, reordered relative
// to other clients' events, or missed entirely. Recovery from missed events
// is only possible through a full EventInventoryRefresh snapshot, which the
// hub sends to a channel on registration.
package protocol

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/plastiwood/stocksync/internal/models"
)

// Event types. The vocabulary is closed: receivers ignore unknown types
// silently so that older clients survive protocol additions.
const (
	// EventUserRegister is sent client to server once per connection to
	// attach an advisory identity to the channel. It is observational only
	// and never gates broadcast delivery.
	EventUserRegister = "user:register"

	// EventInventoryUpdated carries a single add/update/delete action.
	EventInventoryUpdated = "inventory:updated"

	// EventInventoryRefresh carries an authoritative full snapshot that
	// replaces the receiver's local inventory wholesale.
	EventInventoryRefresh = "inventory:refresh"

	// EventBillCreated announces a committed sale.
	EventBillCreated = "bill:created"
)

// Inventory update actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is the wire envelope for all messages in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserRegister is the payload of EventUserRegister.
type UserRegister struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// InventoryUpdate is the payload of EventInventoryUpdated. Item is set for
// add and update actions; ItemID is set for delete.
type InventoryUpdate struct {
	Action string                `json:"action"`
	Item   *models.InventoryItem `json:"item,omitempty"`
	ItemID int                   `json:"itemId,omitempty"`
}

// InventoryRefresh is the payload of EventInventoryRefresh.
type InventoryRefresh struct {
	Inventory []models.InventoryItem `json:"inventory"`
}

// BillCreated is the payload of EventBillCreated.
type BillCreated struct {
	Bill models.Bill `json:"bill"`
}

// Payload validation errors. Malformed payloads are dropped by receivers
// with a diagnostic; they never propagate past the connection boundary.
var (
	ErrMissingItem   = errors.New("inventory update is missing item")
	ErrMissingItemID = errors.New("inventory delete is missing itemId")
	ErrUnknownAction = errors.New("unknown inventory action")
	ErrMissingBill   = errors.New("bill event is missing bill identifier")
)

// NewEvent wraps a payload in an Event envelope.
func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Data: data}, nil
}

// Validate checks that an inventory update carries the fields its action
// requires.
func (u *InventoryUpdate) Validate() error {
	switch u.Action {
	case ActionAdd, ActionUpdate:
		if u.Item == nil || u.Item.ID == 0 {
			return ErrMissingItem
		}
	case ActionDelete:
		if u.ItemID == 0 {
			return ErrMissingItemID
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, u.Action)
	}
	return nil
}

// DecodeInventoryUpdate parses and validates an EventInventoryUpdated payload.
func DecodeInventoryUpdate(ev Event) (*InventoryUpdate, error) {
	var upd InventoryUpdate
	if err := json.Unmarshal(ev.Data, &upd); err != nil {
		return nil, fmt.Errorf("decode inventory update: %w", err)
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	return &upd, nil
}

// DecodeInventoryRefresh parses an EventInventoryRefresh payload. An empty
// snapshot is valid: refresh is authoritative even when it clears everything.
func DecodeInventoryRefresh(ev Event) (*InventoryRefresh, error) {
	var ref InventoryRefresh
	if err := json.Unmarshal(ev.Data, &ref); err != nil {
		return nil, fmt.Errorf("decode inventory refresh: %w", err)
	}
	if ref.Inventory == nil {
		ref.Inventory = []models.InventoryItem{}
	}
	return &ref, nil
}

// DecodeBillCreated parses and validates an EventBillCreated payload.
func DecodeBillCreated(ev Event) (*BillCreated, error) {
	var bc BillCreated
	if err := json.Unmarshal(ev.Data, &bc); err != nil {
		return nil, fmt.Errorf("decode bill created: %w", err)
	}
	if bc.Bill.ID == 0 {
		return nil, ErrMissingBill
	}
	return &bc, nil
}

// DecodeUserRegister parses an EventUserRegister payload.
func DecodeUserRegister(ev Event) (*UserRegister, error) {
	var reg UserRegister
	if err := json.Unmarshal(ev.Data, &reg); err != nil {
		return nil, fmt.Errorf("decode user register: %w", err)
	}
	return &reg, nil
}
