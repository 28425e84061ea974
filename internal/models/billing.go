// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package models

import "time"

// Customer identifies the buyer on a bill.
type Customer struct {
	ID        int        `json:"id,omitempty"`
	Name      string     `json:"name" validate:"required,max=255"`
	Phone     string     `json:"phone" validate:"max=50"`
	GST       string     `json:"gst" validate:"max=50"`
	Address   string     `json:"address"`
	State     string     `json:"state" validate:"max=50"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
	LastBill  *time.Time `json:"lastBillDate,omitempty"`
}

// BillItem is a single line on a bill, referencing an inventory item by ID.
type BillItem struct {
	ItemID   int     `json:"itemId" validate:"required,gt=0"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	GST      float64 `json:"gst" validate:"gte=0,lte=100"`
	Amount   float64 `json:"amount"`
}

// GSTBreakdown splits the tax total into its components. For intra-state
// sales CGST and SGST each carry half the tax; inter-state sales use IGST.
type GSTBreakdown struct {
	CGST float64 `json:"cgst"`
	SGST float64 `json:"sgst"`
	IGST float64 `json:"igst"`
}

// PaymentTracking records how much of a bill has been settled.
type PaymentTracking struct {
	Paid    float64    `json:"paid"`
	Pending float64    `json:"pending"`
	Method  string     `json:"method,omitempty"`
	PaidAt  *time.Time `json:"paidAt,omitempty"`
}

// Bill is a completed sale. Bills are immutable once created; payment
// tracking is the only field updated afterwards.
type Bill struct {
	ID              int             `json:"id"`
	Customer        Customer        `json:"customer" validate:"required"`
	Items           []BillItem      `json:"items" validate:"required,min=1,dive"`
	Subtotal        float64         `json:"subtotal" validate:"gte=0"`
	GSTBreakdown    GSTBreakdown    `json:"gstBreakdown"`
	TotalGST        float64         `json:"totalGST" validate:"gte=0"`
	Total           float64         `json:"total" validate:"gte=0"`
	PaymentStatus   string          `json:"paymentStatus" validate:"omitempty,oneof=paid pending partial"`
	PaymentTracking PaymentTracking `json:"paymentTracking"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Supplier identifies the seller on a purchase.
type Supplier struct {
	ID        int       `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,max=255"`
	Phone     string    `json:"phone" validate:"max=50"`
	GST       string    `json:"gst" validate:"max=50"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Purchase is an inbound stock order from a supplier.
type Purchase struct {
	ID              int             `json:"id"`
	Supplier        Supplier        `json:"supplier" validate:"required"`
	InvoiceNo       string          `json:"invoiceNo" validate:"max=100"`
	PurchaseDate    string          `json:"purchaseDate"`
	Items           []BillItem      `json:"items" validate:"required,min=1,dive"`
	Subtotal        float64         `json:"subtotal" validate:"gte=0"`
	TotalGST        float64         `json:"totalGST" validate:"gte=0"`
	Total           float64         `json:"total" validate:"gte=0"`
	PaymentStatus   string          `json:"paymentStatus" validate:"omitempty,oneof=paid pending partial"`
	PaymentTracking PaymentTracking `json:"paymentTracking"`
	CreatedAt       time.Time       `json:"createdAt"`
}
