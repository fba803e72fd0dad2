package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

const (
	// PriceStalenessThreshold is how old a cached price can be before it's
	// considered stale.
	PriceStalenessThreshold = 24 * time.Hour

	// Price sources reported alongside resolved prices.
	PriceSourceCached = "cached"
	PriceSourceStale  = "cached (stale)"
	PriceSourceLive   = "live"
)

// PriceService resolves a single item's marketplace unit price: cached
// trading-post row first, then a point remote fetch that is upserted back.
// Sellability is checked before any remote call so un-sellable items never
// cost a request.
type PriceService struct {
	db      *gorm.DB
	gw2     *GW2Service
	catalog *ItemCatalog
}

func NewPriceService(db *gorm.DB, gw2 *GW2Service, catalog *ItemCatalog) *PriceService {
	return &PriceService{
		db:      db,
		gw2:     gw2,
		catalog: catalog,
	}
}

// Price returns the unit price for the requested side, or nil when the item
// cannot be listed or the market has no listings on that side. The source
// tag tells the caller whether the value came from cache and how fresh it is.
func (s *PriceService) Price(ctx context.Context, itemID int, side models.TradeSide) (*int64, string, error) {
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, "", err
	}
	if !item.MarketSellable() {
		return nil, "", nil
	}

	var cached models.TradingPostPrice
	err = s.db.First(&cached, "item_id = ?", itemID).Error
	if err == nil {
		source := PriceSourceCached
		if time.Since(cached.FetchedAt) > PriceStalenessThreshold {
			source = PriceSourceStale
		}
		return cached.UnitPrice(side), source, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to read price for item %d: %w", itemID, err)
	}

	fetched, err := s.gw2.Price(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Not listed on the trading post at all.
			return nil, "", nil
		}
		return nil, "", err
	}

	if err := s.store(fetched); err != nil {
		log.Printf("Price service: failed to store price for item %d: %v", itemID, err)
	}
	return fetched.UnitPrice(side), PriceSourceLive, nil
}

// PriceOrZero resolves the side's unit price, treating "no price" and
// resolution failures alike as zero. Per-item price failures must never
// abort a valuation pass.
func (s *PriceService) PriceOrZero(ctx context.Context, itemID int, side models.TradeSide) int64 {
	price, _, err := s.Price(ctx, itemID, side)
	if err != nil {
		log.Printf("Price service: error getting %s price for item %d: %v", side, itemID, err)
		return 0
	}
	if price == nil {
		return 0
	}
	return *price
}

func (s *PriceService) store(price *models.TradingPostPrice) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		UpdateAll: true,
	}).Create(price).Error
}
