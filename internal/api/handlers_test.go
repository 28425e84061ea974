// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/plastiwood/stocksync/internal/config"
	"github.com/plastiwood/stocksync/internal/logging"
	"github.com/plastiwood/stocksync/internal/models"
	"github.com/plastiwood/stocksync/internal/protocol"
	"github.com/plastiwood/stocksync/internal/store"
	ws "github.com/plastiwood/stocksync/internal/websocket"
)

//nolint:gochecknoinits // init ensures quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

type testServer struct {
	store  *store.Store
	hub    *ws.Hub
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := store.New()
	hub := ws.NewHub(func() []models.InventoryItem { return st.Inventory() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	cfg := &config.Config{}
	cfg.Security.CORSOrigins = []string{"*"}
	cfg.Security.RateLimitReqs = 1000
	cfg.Security.RateLimitWindow = time.Minute

	handler := NewHandler(st, hub, cfg)
	srv := httptest.NewServer(handler.Routes())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &testServer{store: st, hub: hub, server: srv}
}

func (ts *testServer) url(path string) string {
	return ts.server.URL + path
}

// dialWS opens a websocket channel against the test server.
func (ts *testServer) dialWS(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	// Wait for the hub to process registration so broadcasts reach us.
	deadline := time.Now().Add(time.Second)
	for ts.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

// readEvent reads one event with a deadline.
func readEvent(t *testing.T, conn *websocket.Conn) protocol.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev protocol.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if dst != nil {
		if err := json.Unmarshal(envelope.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestInventoryCRUD(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.url("/api/v1/inventory"), models.InventoryItem{Name: "Steel Rebar", Quantity: 1000, Price: 65})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created models.InventoryItem
	decodeData(t, resp, &created)
	if created.ID != 1 {
		t.Errorf("created ID = %d, want 1", created.ID)
	}

	created.Quantity = 800
	data, _ := json.Marshal(created)
	req, _ := http.NewRequest(http.MethodPut, ts.url("/api/v1/inventory/1"), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	var updated models.InventoryItem
	decodeData(t, resp, &updated)
	if updated.Quantity != 800 {
		t.Errorf("updated quantity = %d, want 800", updated.Quantity)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.url("/api/v1/inventory/1"), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", resp.StatusCode)
	}

	if len(ts.store.Inventory()) != 0 {
		t.Error("inventory should be empty after delete")
	}
}

func TestInventoryUpdateNotFound(t *testing.T) {
	ts := newTestServer(t)

	data, _ := json.Marshal(models.InventoryItem{Name: "Ghost"})
	req, _ := http.NewRequest(http.MethodPut, ts.url("/api/v1/inventory/42"), bytes.NewReader(data))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestInventoryValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.url("/api/v1/inventory"), models.InventoryItem{Quantity: -5})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid item", resp.StatusCode)
	}
}

func TestCreateBillDecrementsStockAndConflicts(t *testing.T) {
	ts := newTestServer(t)
	item := ts.store.AddItem(models.InventoryItem{Name: "Cement", Quantity: 10, Price: 350})

	resp := postJSON(t, ts.url("/api/v1/bills"), models.Bill{
		Customer: models.Customer{Name: "Ravi"},
		Items:    []models.BillItem{{ItemID: item.ID, Quantity: 4, Price: 350}},
		Total:    1400,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bill status = %d, want 201", resp.StatusCode)
	}
	_ = resp.Body.Close()

	got, _ := ts.store.GetItem(item.ID)
	if got.Quantity != 6 {
		t.Errorf("stock = %d, want 6 after sale", got.Quantity)
	}

	resp = postJSON(t, ts.url("/api/v1/bills"), models.Bill{
		Customer: models.Customer{Name: "Ravi"},
		Items:    []models.BillItem{{ItemID: item.ID, Quantity: 99, Price: 350}},
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409 for insufficient stock", resp.StatusCode)
	}
}

func TestWebSocketReceivesInventoryBroadcast(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dialWS(t)

	resp := postJSON(t, ts.url("/api/v1/inventory"), models.InventoryItem{Name: "Plywood", Quantity: 100})
	_ = resp.Body.Close()

	ev := readEvent(t, conn)
	if ev.Type != protocol.EventInventoryUpdated {
		t.Fatalf("event type = %q, want %q", ev.Type, protocol.EventInventoryUpdated)
	}
	upd, err := protocol.DecodeInventoryUpdate(ev)
	if err != nil {
		t.Fatalf("DecodeInventoryUpdate: %v", err)
	}
	if upd.Action != protocol.ActionAdd || upd.Item.Name != "Plywood" {
		t.Errorf("payload mismatch: %+v", upd)
	}
}

func TestBillBroadcastPrecedesRefresh(t *testing.T) {
	ts := newTestServer(t)
	item := ts.store.AddItem(models.InventoryItem{Name: "Deck Board", Quantity: 150})
	conn := ts.dialWS(t)

	resp := postJSON(t, ts.url("/api/v1/bills"), models.Bill{
		Customer: models.Customer{Name: "Asha"},
		Items:    []models.BillItem{{ItemID: item.ID, Quantity: 2}},
	})
	_ = resp.Body.Close()

	first := readEvent(t, conn)
	if first.Type != protocol.EventBillCreated {
		t.Fatalf("first event = %q, want %q", first.Type, protocol.EventBillCreated)
	}
	second := readEvent(t, conn)
	if second.Type != protocol.EventInventoryRefresh {
		t.Fatalf("second event = %q, want %q", second.Type, protocol.EventInventoryRefresh)
	}

	ref, err := protocol.DecodeInventoryRefresh(second)
	if err != nil {
		t.Fatalf("DecodeInventoryRefresh: %v", err)
	}
	if len(ref.Inventory) != 1 || ref.Inventory[0].Quantity != 148 {
		t.Errorf("refresh should carry post-sale stock, got %+v", ref.Inventory)
	}
}

func TestRegisterTriggersSnapshot(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddItem(models.InventoryItem{Name: "Steel Rebar", Quantity: 1000})
	conn := ts.dialWS(t)

	reg, err := protocol.NewEvent(protocol.EventUserRegister, protocol.UserRegister{Role: "staff", Name: "Kiran"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := conn.WriteJSON(reg); err != nil {
		t.Fatalf("write register: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != protocol.EventInventoryRefresh {
		t.Fatalf("event type = %q, want registration snapshot", ev.Type)
	}
	ref, err := protocol.DecodeInventoryRefresh(ev)
	if err != nil {
		t.Fatalf("DecodeInventoryRefresh: %v", err)
	}
	if len(ref.Inventory) != 1 || ref.Inventory[0].Name != "Steel Rebar" {
		t.Errorf("snapshot mismatch: %+v", ref.Inventory)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Seed()

	resp, err := http.Get(ts.url("/api/v1/health"))
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var health models.HealthStatus
	decodeData(t, resp, &health)
	if health.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", health.Status)
	}
	if health.InventoryItems != 5 {
		t.Errorf("inventory items = %d, want 5 after seed", health.InventoryItems)
	}
}

func TestRequestIDHeaderPresent(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.url("/api/v1/health"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.url("/metrics"))
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("api_requests_total")) && !bytes.Contains(body, []byte("go_goroutines")) {
		t.Error("metrics output missing expected series")
	}
}
