// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/protocol"
)

// Status is the connection lifecycle state exposed to the presentation
// layer.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Reconnection bounds. Delays double from the initial value up to the
// cap; after the attempt limit the manager gives up for good.
const (
	defaultInitialRetryDelay = 1000 * time.Millisecond
	defaultMaxRetryDelay     = 5000 * time.Millisecond
	defaultMaxRetries        = 5
	defaultHandshakeTimeout  = 10 * time.Second
)

// ErrRetriesExhausted is returned by Run when every reconnection
// attempt has failed. It is surfaced to the operator exactly once.
var ErrRetriesExhausted = errors.New("syncclient: reconnection attempts exhausted")

// EventHandler consumes events received over the channel. The
// Reconciler satisfies this.
type EventHandler interface {
	HandleEvent(ev protocol.Event)
}

// ManagerConfig configures a connection Manager. Zero values fall back
// to the standard bounds.
type ManagerConfig struct {
	// URL is the full websocket endpoint, e.g. ws://host:3000/api/v1/ws.
	URL string

	// Identity is sent as a user:register event after every successful
	// connect, including reconnects, so the server can resync us.
	Identity protocol.UserRegister

	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	MaxRetries        int
	HandshakeTimeout  time.Duration
}

func (c *ManagerConfig) applyDefaults() {
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = defaultInitialRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
}

// Manager maintains a websocket channel to the server, reconnecting
// with bounded backoff when it drops and handing every received event
// to the handler.
type Manager struct {
	cfg      ManagerConfig
	handler  EventHandler
	notifier *Notifier
	onStatus func(Status)

	mu     sync.Mutex
	status Status
	conn   *websocket.Conn

	// registerFn sends the identity on a fresh connection. Overridable in
	// tests to exercise the registration failure path.
	registerFn func(conn *websocket.Conn) error
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithOnStatusChange registers a callback invoked whenever the
// connection status changes.
func WithOnStatusChange(fn func(Status)) ManagerOption {
	return func(m *Manager) { m.onStatus = fn }
}

// NewManager creates a Manager. The notifier is optional; when present
// it receives connection lifecycle notifications.
func NewManager(cfg ManagerConfig, handler EventHandler, notifier *Notifier, opts ...ManagerOption) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:      cfg,
		handler:  handler,
		notifier: notifier,
		status:   StatusDisconnected,
	}
	m.registerFn = m.register
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsOnline reports whether the channel is currently usable.
func (m *Manager) IsOnline() bool {
	return m.Status() == StatusConnected
}

// Run connects and keeps the channel alive until ctx is cancelled or
// the retry budget runs out. It blocks, so it is suitable as a service
// main loop.
func (m *Manager) Run(ctx context.Context) error {
	retries := 0
	delay := m.cfg.InitialRetryDelay

	for {
		m.setStatus(StatusConnecting)

		// An attempt is dial plus identity registration: a server that
		// accepts the handshake but rejects the first write still burns
		// retry budget and backs off like a failed dial.
		conn, err := m.dial(ctx)
		if err == nil {
			if regErr := m.registerFn(conn); regErr != nil {
				_ = conn.Close()
				err = regErr
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				m.setStatus(StatusDisconnected)
				return ctx.Err()
			}

			retries++
			logging.Warn().
				Err(err).
				Int("attempt", retries).
				Int("max_attempts", m.cfg.MaxRetries).
				Msg("Connection attempt failed")

			if retries >= m.cfg.MaxRetries {
				m.setStatus(StatusDisconnected)
				m.notify("Connection failed",
					fmt.Sprintf("Gave up after %d attempts", retries),
					SeverityError)
				return ErrRetriesExhausted
			}

			m.setStatus(StatusDisconnected)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay = min(delay*2, m.cfg.MaxRetryDelay)
			continue
		}

		// Fresh session: reset the retry budget; the server answers the
		// registration with an authoritative snapshot.
		retries = 0
		delay = m.cfg.InitialRetryDelay

		m.setConn(conn)
		m.setStatus(StatusConnected)
		m.notify("Connected", "Realtime sync active", SeveritySuccess)

		err = m.readLoop(ctx, conn)
		m.setConn(nil)
		m.setStatus(StatusDisconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("Connection lost, reconnecting")
		m.notify("Connection lost", "Attempting to reconnect", SeverityWarning)
	}
}

// dial opens one websocket connection.
func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.HandshakeTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, m.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.cfg.URL, err)
	}
	return conn, nil
}

// register sends the advisory identity for this terminal.
func (m *Manager) register(conn *websocket.Conn) error {
	ev, err := protocol.NewEvent(protocol.EventUserRegister, m.cfg.Identity)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}
	if err := conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}
	return nil
}

// readLoop pumps events from the connection into the handler until the
// connection drops or ctx is cancelled.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Closing the connection from a watcher goroutine is the only way
	// to interrupt a blocked ReadJSON.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev protocol.Event
		if err := conn.ReadJSON(&ev); err != nil {
			_ = conn.Close()
			return err
		}
		if m.handler != nil {
			m.handler.HandleEvent(ev)
		}
	}
}

func (m *Manager) setConn(conn *websocket.Conn) {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	cb := m.onStatus
	m.mu.Unlock()

	if changed {
		logging.Debug().Str("status", string(s)).Msg("Connection status changed")
		if cb != nil {
			cb(s)
		}
	}
}

func (m *Manager) notify(title, message string, severity Severity) {
	if m.notifier != nil {
		m.notifier.Notify(title, message, severity)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
