// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/plastiwood/stocksync/internal/models"
)

func TestAddItemAssignsSequentialIDs(t *testing.T) {
	s := New()

	a := s.AddItem(models.InventoryItem{Name: "Steel Rebar", Quantity: 1000})
	b := s.AddItem(models.InventoryItem{Name: "Cement", Quantity: 500})

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("expected IDs 1 and 2, got %d and %d", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("timestamps not set on add")
	}

	inv := s.Inventory()
	if len(inv) != 2 || inv[0].Name != "Steel Rebar" || inv[1].Name != "Cement" {
		t.Errorf("inventory should keep insertion order, got %+v", inv)
	}
}

func TestUpdateItem(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Plywood", Quantity: 100})

	item.Quantity = 80
	updated, err := s.UpdateItem(item)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Quantity != 80 {
		t.Errorf("quantity = %d, want 80", updated.Quantity)
	}
	if updated.CreatedAt != item.CreatedAt {
		t.Error("update must preserve creation timestamp")
	}

	_, err = s.UpdateItem(models.InventoryItem{ID: 99})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update of unknown item: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteItem(t *testing.T) {
	s := New()
	a := s.AddItem(models.InventoryItem{Name: "A"})
	b := s.AddItem(models.InventoryItem{Name: "B"})

	if err := s.DeleteItem(b.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	inv := s.Inventory()
	if len(inv) != 1 || inv[0].ID != a.ID {
		t.Errorf("expected only item %d to remain, got %+v", a.ID, inv)
	}
	if err := s.DeleteItem(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestCreateBillDecrementsStock(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Deck Board", Quantity: 150, Price: 2500})

	bill, err := s.CreateBill(models.Bill{
		Customer: models.Customer{Name: "Ravi"},
		Items:    []models.BillItem{{ItemID: item.ID, Quantity: 10, Price: 2500}},
		Total:    25000,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.ID != 1 {
		t.Errorf("bill ID = %d, want 1", bill.ID)
	}

	got, err := s.GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Quantity != 140 {
		t.Errorf("stock after sale = %d, want 140", got.Quantity)
	}
}

func TestCreateBillNewestFirst(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Cement", Quantity: 500})

	for i := 0; i < 3; i++ {
		if _, err := s.CreateBill(models.Bill{
			Customer: models.Customer{Name: "C"},
			Items:    []models.BillItem{{ItemID: item.ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("CreateBill: %v", err)
		}
	}

	bills := s.Bills()
	if len(bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(bills))
	}
	if bills[0].ID != 3 || bills[2].ID != 1 {
		t.Errorf("bills should be newest-first, got IDs %d,%d,%d", bills[0].ID, bills[1].ID, bills[2].ID)
	}
}

func TestCreateBillAtomicOnFailure(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Rebar", Quantity: 5})

	_, err := s.CreateBill(models.Bill{
		Customer: models.Customer{Name: "X"},
		Items: []models.BillItem{
			{ItemID: item.ID, Quantity: 3},
			{ItemID: item.ID, Quantity: 99},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	got, _ := s.GetItem(item.ID)
	if got.Quantity != 5 {
		t.Errorf("failed bill must not change stock, quantity = %d", got.Quantity)
	}
	if len(s.Bills()) != 0 {
		t.Error("failed bill must not be recorded")
	}

	_, err = s.CreateBill(models.Bill{
		Customer: models.Customer{Name: "X"},
		Items:    []models.BillItem{{ItemID: 404, Quantity: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for unknown line item", err)
	}
}

func TestCreateBillDuplicateLinesCheckedAgainstCombinedDemand(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Cement", Quantity: 10})

	// Two lines for the same item must be verified together: each alone
	// fits the stock, but their sum does not.
	_, err := s.CreateBill(models.Bill{
		Customer: models.Customer{Name: "Ravi"},
		Items: []models.BillItem{
			{ItemID: item.ID, Quantity: 6},
			{ItemID: item.ID, Quantity: 6},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	got, _ := s.GetItem(item.ID)
	if got.Quantity != 10 {
		t.Errorf("rejected bill must not change stock, quantity = %d", got.Quantity)
	}

	// A combined demand that does fit commits once for both lines.
	_, err = s.CreateBill(models.Bill{
		Customer: models.Customer{Name: "Ravi"},
		Items: []models.BillItem{
			{ItemID: item.ID, Quantity: 6},
			{ItemID: item.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	got, _ = s.GetItem(item.ID)
	if got.Quantity != 0 {
		t.Errorf("stock = %d, want 0 after selling combined demand", got.Quantity)
	}
}

func TestCreatePurchaseIncrementsStock(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Plywood", Quantity: 100})

	p := s.CreatePurchase(models.Purchase{
		Supplier: models.Supplier{Name: "Timber Co"},
		Items:    []models.BillItem{{ItemID: item.ID, Quantity: 40}},
	})
	if p.ID != 1 {
		t.Errorf("purchase ID = %d, want 1", p.ID)
	}

	got, _ := s.GetItem(item.ID)
	if got.Quantity != 140 {
		t.Errorf("stock after purchase = %d, want 140", got.Quantity)
	}
}

func TestCustomersAndSuppliers(t *testing.T) {
	s := New()

	c := s.AddCustomer(models.Customer{Name: "Ravi", Phone: "98765"})
	if c.ID != 1 {
		t.Errorf("customer ID = %d, want 1", c.ID)
	}
	c.Phone = "12345"
	if _, err := s.UpdateCustomer(c); err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if got := s.Customers(); got[0].Phone != "12345" {
		t.Errorf("customer phone = %q, want updated value", got[0].Phone)
	}

	sup := s.AddSupplier(models.Supplier{Name: "Timber Co"})
	if sup.ID != 1 {
		t.Errorf("supplier ID = %d, want 1", sup.ID)
	}
	if _, err := s.UpdateSupplier(models.Supplier{ID: 7}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of unknown supplier: err = %v, want ErrNotFound", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := New()

	if n := s.Seed(); n != 5 {
		t.Errorf("first seed added %d items, want 5", n)
	}
	if n := s.Seed(); n != 0 {
		t.Errorf("second seed added %d items, want 0", n)
	}
	if len(s.Inventory()) != 5 {
		t.Errorf("inventory size = %d, want 5", len(s.Inventory()))
	}
}

func TestSeedConcurrentCallersSeedOnce(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Seed()
		}()
	}
	wg.Wait()

	if got := len(s.Inventory()); got != 5 {
		t.Errorf("inventory size = %d, want 5 after concurrent seeding", got)
	}
}

func TestSnapshotsDoNotAliasInternalState(t *testing.T) {
	s := New()
	s.AddItem(models.InventoryItem{Name: "Rebar", Quantity: 10})

	inv := s.Inventory()
	inv[0].Quantity = 0

	got, _ := s.GetItem(1)
	if got.Quantity != 10 {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	item := s.AddItem(models.InventoryItem{Name: "Cement", Quantity: 10000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreateBill(models.Bill{
				Customer: models.Customer{Name: "C"},
				Items:    []models.BillItem{{ItemID: item.ID, Quantity: 1}},
			})
			_ = s.Inventory()
			_ = s.Bills()
		}()
	}
	wg.Wait()

	got, _ := s.GetItem(item.ID)
	if got.Quantity != 10000-50 {
		t.Errorf("quantity after 50 concurrent sales = %d, want %d", got.Quantity, 10000-50)
	}
	if len(s.Bills()) != 50 {
		t.Errorf("bill count = %d, want 50", len(s.Bills()))
	}
}
