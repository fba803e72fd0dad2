package models

import (
	"testing"
	"time"
)

func TestSessionExportBeforeFirstUpdate(t *testing.T) {
	state := SessionState{
		StartValue: 5000,
		StartTime:  time.Date(2024, 3, 1, 20, 15, 30, 0, time.UTC),
	}

	export := state.Export()
	if export.StartValue != 5000 {
		t.Errorf("StartValue = %d, want 5000", export.StartValue)
	}
	if export.CurrentValue != nil || export.ProfitValue != nil {
		t.Error("current and profit must be absent until the first update")
	}
	if export.StartTime != "2024-03-01T20:15:30" {
		t.Errorf("StartTime = %q, want second-precision ISO-8601", export.StartTime)
	}
}

func TestSessionExportAfterUpdate(t *testing.T) {
	state := SessionState{
		StartValue:   5000,
		CurrentValue: 7500,
		ProfitValue:  2500,
		StartTime:    time.Now(),
		Updated:      true,
	}

	export := state.Export()
	if export.CurrentValue == nil || *export.CurrentValue != 7500 {
		t.Errorf("CurrentValue = %v, want 7500", export.CurrentValue)
	}
	if export.ProfitValue == nil || *export.ProfitValue != 2500 {
		t.Errorf("ProfitValue = %v, want 2500", export.ProfitValue)
	}
}

func TestItemMetadataSellability(t *testing.T) {
	tests := []struct {
		name       string
		flags      []string
		wantVendor bool
		wantMarket bool
	}{
		{"plain item", nil, true, true},
		{"no-sell", []string{FlagNoSell}, false, false},
		{"account bound", []string{FlagAccountBound}, true, false},
		{"soulbind on use only", []string{FlagSoulBindOnUse}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &ItemMetadata{Flags: tt.flags}
			if got := item.VendorSellable(); got != tt.wantVendor {
				t.Errorf("VendorSellable() = %v, want %v", got, tt.wantVendor)
			}
			if got := item.MarketSellable(); got != tt.wantMarket {
				t.Errorf("MarketSellable() = %v, want %v", got, tt.wantMarket)
			}
		})
	}
}
