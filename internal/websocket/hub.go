// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package websocket implements the server-side broadcast hub: one channel per
// connected terminal, fan-out of committed mutations to every channel, and
// advisory per-channel identity records.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/metrics"
	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/protocol"
)

// SnapshotFunc returns the current full inventory. The hub calls it when a
// channel registers so the new client starts from an authoritative snapshot
// rather than waiting for the next unrelated broadcast.
type SnapshotFunc func() []models.InventoryItem

// Hub maintains the set of active clients and broadcasts events to them.
//
// Broadcasts are issued from a single dispatch point, so all channels observe
// events from one source in the same order. There is no cross-channel
// ordering guarantee for concurrent mutations from different clients; the
// client reconciler's idempotent merge rules are the protection against that.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan protocol.Event
	Register   chan *Client
	Unregister chan *Client
	snapshot   SnapshotFunc
	mu         sync.RWMutex
}

// NewHub creates a hub. The snapshot function may be nil, in which case
// registration does not trigger a resync.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan protocol.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		snapshot:   snapshot,
	}
}

// RunWithContext runs the hub loop until the context is canceled, then
// closes all clients and returns ctx.Err(). Designed for suture supervision.
//
// Lifecycle events take priority over broadcasts so client state is always
// settled before an event fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle first, non-blocking.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case ev := <-h.broadcast:
			h.broadcastToClients(ev)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("channel connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.WebSocketConnections.Dec()
	}
	total := len(h.clients)
	h.mu.Unlock()

	logging.Info().Int("total_clients", total).Msg("channel disconnected")
}

// broadcastToClients fans one event out to every connected channel in client
// ID order. A channel whose send buffer is full is dropped rather than
// blocking the dispatch loop.
func (h *Hub) broadcastToClients(ev protocol.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- ev:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketConnections.Dec()
		logging.Warn().Uint64("client_id", client.id).Msg("send buffer full, dropping channel")
	}

	metrics.BroadcastsTotal.WithLabelValues(ev.Type).Inc()
}

// shutdown closes all clients in ID order and logs the reason.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("broadcast hub stopped")
}

// enqueue places an event on the broadcast channel, dropping it with a
// diagnostic if the channel is saturated.
func (h *Hub) enqueue(ev protocol.Event) {
	select {
	case h.broadcast <- ev:
	default:
		metrics.BroadcastsDropped.WithLabelValues(ev.Type).Inc()
		logging.Warn().Str("event_type", ev.Type).Msg("broadcast channel full, dropping event")
	}
}

// BroadcastInventoryUpdated fans out a single add/update/delete action to
// every channel, including the channel of the client that performed the
// mutation. Self-delivery is expected; the reconciler merge is idempotent.
func (h *Hub) BroadcastInventoryUpdated(upd protocol.InventoryUpdate) {
	ev, err := protocol.NewEvent(protocol.EventInventoryUpdated, upd)
	if err != nil {
		logging.Err(err).Msg("failed to encode inventory update")
		return
	}
	h.enqueue(ev)
}

// BroadcastInventoryRefresh fans out an authoritative full snapshot.
func (h *Hub) BroadcastInventoryRefresh(inventory []models.InventoryItem) {
	ev, err := protocol.NewEvent(protocol.EventInventoryRefresh, protocol.InventoryRefresh{Inventory: inventory})
	if err != nil {
		logging.Err(err).Msg("failed to encode inventory refresh")
		return
	}
	h.enqueue(ev)
}

// BroadcastBillCreated announces a committed sale. Callers that also need a
// stock refresh must broadcast the bill first; the hub preserves enqueue
// order during fan-out.
func (h *Hub) BroadcastBillCreated(bill models.Bill) {
	ev, err := protocol.NewEvent(protocol.EventBillCreated, protocol.BillCreated{Bill: bill})
	if err != nil {
		logging.Err(err).Msg("failed to encode bill created")
		return
	}
	h.enqueue(ev)
}

// sendSnapshot delivers a full inventory refresh to a single channel. Called
// from the client's read pump after identity registration.
//
// The send happens under h.mu with a membership check: every close of
// client.send happens under h.mu after the client is removed from the map,
// so a member's channel cannot be closed mid-send. A client the hub has
// already dropped gets nothing instead of a send on a closed channel.
func (h *Hub) sendSnapshot(client *Client) {
	if h.snapshot == nil {
		return
	}
	ev, err := protocol.NewEvent(protocol.EventInventoryRefresh, protocol.InventoryRefresh{Inventory: h.snapshot()})
	if err != nil {
		logging.Err(err).Msg("failed to encode registration snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		logging.Warn().Uint64("client_id", client.id).Msg("channel gone, skipping registration snapshot")
		return
	}
	select {
	case client.send <- ev:
	default:
		logging.Warn().Uint64("client_id", client.id).Msg("send buffer full, skipping registration snapshot")
	}
}

// ClientCount returns the number of connected channels.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Identities returns the advisory identity records of connected channels,
// for diagnostics only. Channels that never registered are omitted.
func (h *Hub) Identities() []protocol.UserRegister {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var out []protocol.UserRegister
	for _, client := range clients {
		if identity, ok := client.Identity(); ok {
			out = append(out, identity)
		}
	}
	return out
}
