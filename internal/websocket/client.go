// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// clientIDCounter generates unique, monotonically increasing IDs so clients
// can be sorted into a stable broadcast order.
var clientIDCounter atomic.Uint64

// Client is the server-side end of one channel: it pumps events between the
// websocket connection and the hub, and holds the channel's advisory
// identity once registered.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan protocol.Event

	identityMu sync.RWMutex
	identity   protocol.UserRegister
	registered bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan protocol.Event, 256),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Identity returns the channel's registered identity, if any.
func (c *Client) Identity() (protocol.UserRegister, bool) {
	c.identityMu.RLock()
	defer c.identityMu.RUnlock()
	return c.identity, c.registered
}

// setIdentity records the advisory identity. Identity is stable for the
// connection lifetime; re-registration on the same connection overwrites.
func (c *Client) setIdentity(reg protocol.UserRegister) {
	c.identityMu.Lock()
	c.identity = reg
	c.registered = true
	c.identityMu.Unlock()
}

// readPump pumps inbound events from the connection to the hub. The only
// domain event a client may send is user:register; everything else is
// ignored for forward compatibility. Malformed payloads are dropped with a
// diagnostic and never terminate the channel.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev protocol.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			break
		}

		switch ev.Type {
		case protocol.EventUserRegister:
			reg, err := protocol.DecodeUserRegister(ev)
			if err != nil {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("dropping malformed register payload")
				continue
			}
			c.setIdentity(*reg)
			logging.Info().
				Uint64("client_id", c.id).
				Str("role", reg.Role).
				Str("name", reg.Name).
				Msg("channel registered")
			c.hub.sendSnapshot(c)
		default:
			logging.Debug().Str("event_type", ev.Type).Uint64("client_id", c.id).Msg("ignoring inbound event")
		}
	}
}

// writePump pumps events from the hub to the connection and keeps the
// channel alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				logging.Err(err).Uint64("client_id", c.id).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
