package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// SetCollectionUpdatedAt stamps a cached collection as refreshed now.
func SetCollectionUpdatedAt(db *gorm.DB, name string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(&models.CollectionTimestamp{
		Name:      name,
		UpdatedAt: time.Now().UTC(),
	}).Error
}

// CollectionUpdatedAt returns when a collection was last refreshed.
// ok is false when the collection has never been stamped.
func CollectionUpdatedAt(db *gorm.DB, name string) (updatedAt time.Time, ok bool, err error) {
	var ts models.CollectionTimestamp
	if err := db.First(&ts, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts.UpdatedAt, true, nil
}
