package models

import (
	"time"
)

// Rarity is the item rarity tier, ordered lowest to highest.
type Rarity string

const (
	RarityJunk       Rarity = "Junk"
	RarityBasic      Rarity = "Basic"
	RarityFine       Rarity = "Fine"
	RarityMasterwork Rarity = "Masterwork"
	RarityRare       Rarity = "Rare"
	RarityExotic     Rarity = "Exotic"
	RarityAscended   Rarity = "Ascended"
	RarityLegendary  Rarity = "Legendary"
)

// rarityOrder positions each tier for comparisons; Junk is the floor.
var rarityOrder = map[Rarity]int{
	RarityJunk:       0,
	RarityBasic:      1,
	RarityFine:       2,
	RarityMasterwork: 3,
	RarityRare:       4,
	RarityExotic:     5,
	RarityAscended:   6,
	RarityLegendary:  7,
}

// Order returns the tier position, lowest = 0. Unknown tiers sort just above
// Junk.
func (r Rarity) Order() int {
	if o, ok := rarityOrder[r]; ok {
		return o
	}
	return 1
}

// Item capability flags as returned by the catalog service.
const (
	FlagNoSell            = "NoSell"
	FlagAccountBound      = "AccountBound"
	FlagSoulbindOnAcquire = "SoulbindOnAcquire"
	FlagSoulBindOnUse     = "SoulBindOnUse"
)

// ItemMetadata caches immutable item details keyed by item id. Rows are
// created on first remote fetch and never expire.
type ItemMetadata struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"index"`
	Rarity      Rarity    `json:"rarity"`
	VendorValue int64     `json:"vendor_value"`
	Flags       []string  `json:"flags" gorm:"serializer:json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *ItemMetadata) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// VendorSellable reports whether a shopkeeper accepts the item at all.
func (m *ItemMetadata) VendorSellable() bool {
	return !m.HasFlag(FlagNoSell)
}

// MarketSellable reports whether the item may ever be listed on the trading
// post. Per-stack binding is checked separately on the stack instance.
func (m *ItemMetadata) MarketSellable() bool {
	return !m.HasFlag(FlagNoSell) && !m.HasFlag(FlagAccountBound)
}

func (m *ItemMetadata) IsJunk() bool {
	return m.Rarity == RarityJunk
}
