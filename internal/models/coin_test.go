package models

import (
	"testing"
)

func TestSplitCoinsRecomposes(t *testing.T) {
	values := []int64{0, 1, 99, 100, 101, 9999, 10000, 10001, 123456, 1000000, 98765432, 1 << 40}

	for _, v := range values {
		c := SplitCoins(v)
		if c.Total() != v {
			t.Errorf("SplitCoins(%d) = %+v, recomposes to %d", v, c, c.Total())
		}
		if c.Silver < 0 || c.Silver > 99 {
			t.Errorf("SplitCoins(%d) silver out of range: %d", v, c.Silver)
		}
		if c.Copper < 0 || c.Copper > 99 {
			t.Errorf("SplitCoins(%d) copper out of range: %d", v, c.Copper)
		}
	}
}

func TestSplitCoinsExample(t *testing.T) {
	c := SplitCoins(123456)
	if c.Gold != 12 || c.Silver != 34 || c.Copper != 56 {
		t.Errorf("SplitCoins(123456) = (%d, %d, %d), want (12, 34, 56)", c.Gold, c.Silver, c.Copper)
	}
}

func TestSplitCoinsNegativeClamps(t *testing.T) {
	c := SplitCoins(-50)
	if c.Gold != 0 || c.Silver != 0 || c.Copper != 0 {
		t.Errorf("SplitCoins(-50) = %+v, want zeros", c)
	}
}

func TestFormatCoins(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 gold, 0 silver, 0 copper"},
		{123456, "12 gold, 34 silver, 56 copper"},
		{-123456, "-12 gold, 34 silver, 56 copper"},
		{101, "0 gold, 1 silver, 1 copper"},
	}

	for _, tt := range tests {
		if got := FormatCoins(tt.amount); got != tt.want {
			t.Errorf("FormatCoins(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
