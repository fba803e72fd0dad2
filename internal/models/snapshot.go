package models

import (
	"time"
)

// CharacterSnapshot holds the value of each holding category as of the last
// valuation pass, one row per character. Columns are upserted independently;
// no history is kept beyond the most recent value.
type CharacterSnapshot struct {
	CharacterName  string    `json:"character_name" gorm:"primaryKey"`
	InventoryValue int64     `json:"inventory_value"`
	MaterialsValue int64     `json:"materials_value"`
	Coins          int64     `json:"coins"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TotalValue is the sum of all tracked categories.
func (s *CharacterSnapshot) TotalValue() int64 {
	return s.InventoryValue + s.MaterialsValue + s.Coins
}

// CollectionTimestamp records when a cached collection was last refreshed
// wholesale. Backs the staleness gate for the bulk price refresh.
type CollectionTimestamp struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Currency is the cached metadata of a wallet currency.
type Currency struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}
