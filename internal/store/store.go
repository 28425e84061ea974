// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

// Package store holds the server's in-memory collections. It is the commit
// point for every mutation: a broadcast may only be issued after the
// corresponding store call has returned.
//
// Inventory keeps insertion order; bills and purchases are kept newest-first.
// All methods return copies so callers never alias internal state.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/plastiwood/stocksync/internal/models"
)

// ErrNotFound is returned when a mutation references an unknown identifier.
var ErrNotFound = errors.New("store: not found")

// ErrInsufficientStock is returned when a bill would drive an item's
// quantity below zero.
var ErrInsufficientStock = errors.New("store: insufficient stock")

// Store is the in-memory dataset behind the HTTP API.
type Store struct {
	mu sync.RWMutex

	inventory []models.InventoryItem
	bills     []models.Bill
	purchases []models.Purchase
	customers []models.Customer
	suppliers []models.Supplier

	nextItemID     int
	nextBillID     int
	nextPurchaseID int
	nextCustomerID int
	nextSupplierID int

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nextItemID:     1,
		nextBillID:     1,
		nextPurchaseID: 1,
		nextCustomerID: 1,
		nextSupplierID: 1,
		now:            time.Now,
	}
}

// Inventory returns a copy of the inventory in insertion order.
func (s *Store) Inventory() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InventoryItem, len(s.inventory))
	copy(out, s.inventory)
	return out
}

// GetItem returns the item with the given ID.
func (s *Store) GetItem(id int) (models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.inventory {
		if item.ID == id {
			return item, nil
		}
	}
	return models.InventoryItem{}, ErrNotFound
}

// AddItem assigns an ID and timestamps and appends the item.
func (s *Store) AddItem(item models.InventoryItem) models.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.nextItemID
	s.nextItemID++
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	s.inventory = append(s.inventory, item)
	return item
}

// UpdateItem replaces the stored item with the same ID in place.
func (s *Store) UpdateItem(item models.InventoryItem) (models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.inventory {
		if s.inventory[i].ID == item.ID {
			item.CreatedAt = s.inventory[i].CreatedAt
			item.UpdatedAt = s.now()
			s.inventory[i] = item
			return item, nil
		}
	}
	return models.InventoryItem{}, ErrNotFound
}

// DeleteItem removes the item with the given ID.
func (s *Store) DeleteItem(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.inventory {
		if s.inventory[i].ID == id {
			s.inventory = append(s.inventory[:i], s.inventory[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Bills returns a copy of the bill log, newest first.
func (s *Store) Bills() []models.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Bill, len(s.bills))
	copy(out, s.bills)
	return out
}

// CreateBill commits a sale: it decrements stock for every line item and
// prepends the bill to the log. The whole operation is atomic; if any line
// references an unknown item or exceeds available stock, nothing changes.
func (s *Store) CreateBill(bill models.Bill) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify before touching stock. Quantities are aggregated per item
	// first so duplicate lines for the same item are checked against the
	// combined demand, not each against the undecremented quantity.
	needed := make(map[int]int, len(bill.Items))
	for _, line := range bill.Items {
		idx := -1
		for i := range s.inventory {
			if s.inventory[i].ID == line.ItemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return models.Bill{}, ErrNotFound
		}
		needed[idx] += line.Quantity
	}
	for idx, qty := range needed {
		if s.inventory[idx].Quantity < qty {
			return models.Bill{}, ErrInsufficientStock
		}
	}

	for idx, qty := range needed {
		s.inventory[idx].Quantity -= qty
		s.inventory[idx].UpdatedAt = s.now()
	}

	bill.ID = s.nextBillID
	s.nextBillID++
	bill.CreatedAt = s.now()
	s.bills = append([]models.Bill{bill}, s.bills...)
	return bill, nil
}

// UpdateBill replaces the stored bill with the same ID.
func (s *Store) UpdateBill(bill models.Bill) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bills {
		if s.bills[i].ID == bill.ID {
			bill.CreatedAt = s.bills[i].CreatedAt
			s.bills[i] = bill
			return bill, nil
		}
	}
	return models.Bill{}, ErrNotFound
}

// DeleteBill removes the bill with the given ID. Stock is not restored;
// deleting a bill is bookkeeping, not a refund.
func (s *Store) DeleteBill(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bills {
		if s.bills[i].ID == id {
			s.bills = append(s.bills[:i], s.bills[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Purchases returns a copy of the purchase log, newest first.
func (s *Store) Purchases() []models.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

// CreatePurchase records an inbound order and increments stock for every
// line that references a known inventory item.
func (s *Store) CreatePurchase(p models.Purchase) models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range p.Items {
		for i := range s.inventory {
			if s.inventory[i].ID == line.ItemID {
				s.inventory[i].Quantity += line.Quantity
				s.inventory[i].UpdatedAt = s.now()
				break
			}
		}
	}

	p.ID = s.nextPurchaseID
	s.nextPurchaseID++
	p.CreatedAt = s.now()
	s.purchases = append([]models.Purchase{p}, s.purchases...)
	return p
}

// UpdatePurchase replaces the stored purchase with the same ID.
func (s *Store) UpdatePurchase(p models.Purchase) (models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.purchases {
		if s.purchases[i].ID == p.ID {
			p.CreatedAt = s.purchases[i].CreatedAt
			s.purchases[i] = p
			return p, nil
		}
	}
	return models.Purchase{}, ErrNotFound
}

// DeletePurchase removes the purchase with the given ID.
func (s *Store) DeletePurchase(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.purchases {
		if s.purchases[i].ID == id {
			s.purchases = append(s.purchases[:i], s.purchases[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Customers returns a copy of the customer list in insertion order.
func (s *Store) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

// AddCustomer assigns an ID and appends the customer.
func (s *Store) AddCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextCustomerID
	s.nextCustomerID++
	c.CreatedAt = s.now()
	s.customers = append(s.customers, c)
	return c
}

// UpdateCustomer replaces the stored customer with the same ID.
func (s *Store) UpdateCustomer(c models.Customer) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.customers {
		if s.customers[i].ID == c.ID {
			c.CreatedAt = s.customers[i].CreatedAt
			s.customers[i] = c
			return c, nil
		}
	}
	return models.Customer{}, ErrNotFound
}

// Suppliers returns a copy of the supplier list in insertion order.
func (s *Store) Suppliers() []models.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Supplier, len(s.suppliers))
	copy(out, s.suppliers)
	return out
}

// AddSupplier assigns an ID and appends the supplier.
func (s *Store) AddSupplier(sup models.Supplier) models.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup.ID = s.nextSupplierID
	s.nextSupplierID++
	sup.CreatedAt = s.now()
	s.suppliers = append(s.suppliers, sup)
	return sup
}

// UpdateSupplier replaces the stored supplier with the same ID.
func (s *Store) UpdateSupplier(sup models.Supplier) (models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.suppliers {
		if s.suppliers[i].ID == sup.ID {
			sup.CreatedAt = s.suppliers[i].CreatedAt
			s.suppliers[i] = sup
			return sup, nil
		}
	}
	return models.Supplier{}, ErrNotFound
}

// Counts returns collection sizes for the health endpoint.
func (s *Store) Counts() (items, bills int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inventory), len(s.bills)
}
