package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// itemCacheSize bounds the in-memory metadata cache. Metadata is immutable,
// so eviction only costs a database read.
const itemCacheSize = 4096

// ItemCatalog lazily resolves item metadata: memory cache, then the sqlite
// store, then a remote fetch that is written back through an upsert.
// Concurrent misses for the same id may both fetch; the unique key collapses
// the duplicate writes.
type ItemCatalog struct {
	db    *gorm.DB
	gw2   *GW2Service
	cache *lru.Cache[int, *models.ItemMetadata]
}

// NewItemCatalog creates an item metadata cache backed by db and the remote
// catalog.
func NewItemCatalog(db *gorm.DB, gw2 *GW2Service) *ItemCatalog {
	cache, err := lru.New[int, *models.ItemMetadata](itemCacheSize)
	if err != nil {
		log.Printf("Item catalog: failed to create memory cache: %v", err)
	}

	return &ItemCatalog{
		db:    db,
		gw2:   gw2,
		cache: cache,
	}
}

// Get returns the item's metadata, fetching and storing it on first use.
// When the record is absent both locally and remotely the error wraps
// ErrNotFound and the caller is expected to skip the item.
func (c *ItemCatalog) Get(ctx context.Context, itemID int) (*models.ItemMetadata, error) {
	if c.cache != nil {
		if item, ok := c.cache.Get(itemID); ok {
			return item, nil
		}
	}

	var item models.ItemMetadata
	err := c.db.First(&item, "id = ?", itemID).Error
	if err == nil {
		if c.cache != nil {
			c.cache.Add(itemID, &item)
		}
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read item %d: %w", itemID, err)
	}

	fetched, err := c.gw2.Item(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		return nil, err
	}

	if err := c.store(fetched); err != nil {
		log.Printf("Item catalog: failed to store item %d: %v", itemID, err)
	}
	if c.cache != nil {
		c.cache.Add(itemID, fetched)
	}
	return fetched, nil
}

// Name returns the item's display name, empty when unresolvable.
func (c *ItemCatalog) Name(ctx context.Context, itemID int) string {
	item, err := c.Get(ctx, itemID)
	if err != nil {
		return ""
	}
	return item.Name
}

func (c *ItemCatalog) store(item *models.ItemMetadata) error {
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(item).Error
}
