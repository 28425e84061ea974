// StockSync - Real-time Inventory and Billing Synchronization
// Copyright 2026 Plastiwood
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plastiwood/stocksync

package validation

import (
	"strings"
	"testing"

	"github.com/plastiwood/stocksync/internal/models"
)

func TestValidateStructPasses(t *testing.T) {
	item := models.InventoryItem{ID: 1, Name: "Steel Rebar", Quantity: 10, GST: 18}
	if err := ValidateStruct(&item); err != nil {
		t.Errorf("valid item failed validation: %v", err)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
	}{
		{"missing name", &models.InventoryItem{Quantity: 1}, "Name"},
		{"negative quantity", &models.InventoryItem{Name: "x", Quantity: -1}, "Quantity"},
		{"gst over 100", &models.InventoryItem{Name: "x", GST: 120}, "GST"},
		{"bill without items", &models.Bill{Customer: models.Customer{Name: "R"}}, "Items"},
		{"bill item without quantity", &models.Bill{
			Customer: models.Customer{Name: "R"},
			Items:    []models.BillItem{{ItemID: 1}},
		}, "Quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, fe := range verr.Errors() {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tt.wantField, verr)
			}
		})
	}
}

func TestValidationErrorMessageAndDetails(t *testing.T) {
	verr := ValidateStruct(&models.InventoryItem{Quantity: -1})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(verr.Error(), "Name is required") {
		t.Errorf("message should name the missing field: %q", verr.Error())
	}
	details := verr.Details()
	if _, ok := details["fields"]; !ok {
		t.Error("details should contain a fields list")
	}
}
