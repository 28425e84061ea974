// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package syncclient implements the terminal-side half of the realtime
// channel: a reconnecting connection manager, an idempotent reconciler
// that folds broadcast events into local working state, and a stacked
// notifier for transient user-facing messages.
package syncclient

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/plastiwood/stocksync/internal/logging"
)

// Severity classifies a notification for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// defaultNotificationLifetime is how long a notification stays visible.
const defaultNotificationLifetime = 4 * time.Second

// Notification is a transient message shown to the operator. Notifications
// stack: each new one is appended and expires independently.
type Notification struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier manages a stack of live notifications. It is safe for
// concurrent use and never returns errors: presentation must not be able
// to fail the reconciliation that triggered it.
type Notifier struct {
	mu       sync.Mutex
	active   []Notification
	timers   map[uint64]*time.Timer
	lifetime time.Duration
	nextID   atomic.Uint64
	onChange func([]Notification)
	closed   bool
}

// NotifierOption customises a Notifier.
type NotifierOption func(*Notifier)

// WithLifetime overrides the default 4s display lifetime.
func WithLifetime(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.lifetime = d
		}
	}
}

// WithOnChange registers a callback invoked with a copy of the active
// stack after every change. The callback runs on the notifier's
// goroutine and must not call back into the Notifier.
func WithOnChange(fn func([]Notification)) NotifierOption {
	return func(n *Notifier) { n.onChange = fn }
}

// NewNotifier creates a Notifier with the standard lifetime.
func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		lifetime: defaultNotificationLifetime,
		timers:   make(map[uint64]*time.Timer),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify pushes a notification onto the stack and schedules its expiry.
func (n *Notifier) Notify(title, message string, severity Severity) {
	notif := Notification{
		ID:        n.nextID.Add(1),
		Title:     title,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.active = append(n.active, notif)
	n.timers[notif.ID] = time.AfterFunc(n.lifetime, func() {
		n.expire(notif.ID)
	})
	n.notifyChangeLocked()
	n.mu.Unlock()

	logging.Debug().
		Str("severity", string(severity)).
		Str("title", title).
		Msg("Notification shown")
}

// expire removes a notification when its lifetime elapses.
func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.timers, id)
	for i, notif := range n.active {
		if notif.ID == id {
			n.active = append(n.active[:i], n.active[i+1:]...)
			n.notifyChangeLocked()
			return
		}
	}
}

// Active returns a copy of the currently visible stack, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.active))
	copy(out, n.active)
	return out
}

// Close stops all pending expiry timers and clears the stack.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.active = nil
}

func (n *Notifier) notifyChangeLocked() {
	if n.onChange == nil {
		return
	}
	snapshot := make([]Notification, len(n.active))
	copy(snapshot, n.active)
	n.onChange(snapshot)
}
