package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// SnapshotStore persists per-character category values, one row per
// character with independently upserted columns.
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

var categoryColumns = map[HoldingCategory]string{
	CategoryInventory: "inventory_value",
	CategoryMaterials: "materials_value",
	CategoryCoins:     "coins",
}

// SaveCategoryValue overwrites one category column for the character,
// creating the row on first write. Concurrent writers to the same key are
// absorbed by the upsert.
func (s *SnapshotStore) SaveCategoryValue(character string, category HoldingCategory, value int64) error {
	column, ok := categoryColumns[category]
	if !ok {
		return fmt.Errorf("unknown holding category %q", category)
	}

	snapshot := models.CharacterSnapshot{
		CharacterName: character,
		UpdatedAt:     time.Now(),
	}
	switch category {
	case CategoryInventory:
		snapshot.InventoryValue = value
	case CategoryMaterials:
		snapshot.MaterialsValue = value
	case CategoryCoins:
		snapshot.Coins = value
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{column: value, "updated_at": snapshot.UpdatedAt}),
	}).Create(&snapshot).Error
}

// Get returns the character's last persisted snapshot, nil when none exists
// yet.
func (s *SnapshotStore) Get(character string) (*models.CharacterSnapshot, error) {
	var snapshot models.CharacterSnapshot
	if err := s.db.First(&snapshot, "character_name = ?", character).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
