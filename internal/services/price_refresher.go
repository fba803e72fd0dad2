package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/gw2tools/gw2-session-tracker/internal/database"
	"github.com/gw2tools/gw2-session-tracker/internal/metrics"
	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

const (
	// tpPricesCollection names the price cache in the collection-timestamp
	// table that gates the 24h staleness check.
	tpPricesCollection = "trading_post_prices"

	// refresherStartupDelay spaces the expensive full resync away from the
	// burst of requests the session start already makes.
	refresherStartupDelay = 60 * time.Second
)

// PriceRefresher resynchronizes the entire owned-item price set from the
// remote market in chunked batch requests. It runs once per tracker
// lifetime, gated on the cache being older than a day. The cached set is
// replaced wholesale only after every chunk succeeded, so a mid-refresh
// failure leaves the last-known-good prices queryable.
type PriceRefresher struct {
	db        *gorm.DB
	gw2       *GW2Service
	character string

	startupDelay time.Duration
	staleAfter   time.Duration

	mu           sync.RWMutex
	lastRun      time.Time
	lastError    string
	pricesCached int
}

// RefreshStatus reports the refresher state for the status API.
type RefreshStatus struct {
	LastRun      time.Time `json:"last_run"`
	LastError    string    `json:"last_error,omitempty"`
	PricesCached int       `json:"prices_cached"`
	Stale        bool      `json:"stale"`
}

func NewPriceRefresher(db *gorm.DB, gw2 *GW2Service, character string) *PriceRefresher {
	return &PriceRefresher{
		db:           db,
		gw2:          gw2,
		character:    character,
		startupDelay: refresherStartupDelay,
		staleAfter:   PriceStalenessThreshold,
	}
}

// Start runs the one-shot startup refresh after the configured delay.
// Intended to be launched as `go refresher.Start(ctx)`.
func (r *PriceRefresher) Start(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(r.startupDelay):
	}

	refreshed, err := r.RefreshIfStale(ctx)
	switch {
	case err != nil:
		log.Printf("Price refresher: startup refresh failed, keeping cached prices: %v", err)
	case refreshed:
		log.Println("Price refresher: startup refresh completed")
	default:
		log.Println("Price refresher: cached prices fresh enough, skipping refresh")
	}
}

// RefreshIfStale runs a full refresh when the price cache has never been
// populated or is at least a day old.
func (r *PriceRefresher) RefreshIfStale(ctx context.Context) (bool, error) {
	updatedAt, ok, err := database.CollectionUpdatedAt(r.db, tpPricesCollection)
	if err != nil {
		return false, err
	}
	if !needsRefresh(updatedAt, ok, r.staleAfter, time.Now()) {
		return false, nil
	}

	log.Println("Price refresher: trading post prices older than 1 day, updating...")
	if err := r.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh resynchronizes prices for every owned item regardless of
// staleness.
func (r *PriceRefresher) Refresh(ctx context.Context) error {
	start := time.Now()

	ids, err := r.ownedItemIDs(ctx)
	if err != nil {
		r.setError(err)
		return err
	}
	if len(ids) == 0 {
		log.Println("Price refresher: no owned items, nothing to refresh")
		return nil
	}

	// Fetch every chunk before touching the cache. A failed chunk aborts
	// the whole refresh so the delete below never runs on partial data.
	byID := make(map[int]models.TradingPostPrice)
	order := make([]int, 0, len(ids))
	for _, chunk := range chunkIDs(ids, priceChunkSize) {
		prices, err := r.gw2.Prices(ctx, chunk)
		if err != nil {
			wrapped := fmt.Errorf("chunk of %d ids: %w", len(chunk), err)
			r.setError(wrapped)
			return wrapped
		}
		for _, price := range prices {
			if _, seen := byID[price.ItemID]; !seen {
				order = append(order, price.ItemID)
			}
			byID[price.ItemID] = price
		}
	}

	prices := make([]models.TradingPostPrice, 0, len(byID))
	for _, id := range order {
		prices = append(prices, byID[id])
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.TradingPostPrice{}).Error; err != nil {
			return err
		}
		if len(prices) > 0 {
			if err := tx.CreateInBatches(prices, 200).Error; err != nil {
				return err
			}
		}
		return database.SetCollectionUpdatedAt(tx, tpPricesCollection)
	})
	if err != nil {
		r.setError(err)
		return err
	}

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastError = ""
	r.pricesCached = len(prices)
	r.mu.Unlock()

	metrics.PriceRefreshTotal.Inc()
	metrics.PriceRefreshDuration.Observe(time.Since(start).Seconds())
	metrics.PricesCached.Set(float64(len(prices)))

	log.Printf("Price refresher: replaced price cache with %d entries (%d owned ids)", len(prices), len(ids))
	return nil
}

// ownedItemIDs collects the deduplicated id set of everything the account
// owns: active character inventory, bank and materials storage.
func (r *PriceRefresher) ownedItemIDs(ctx context.Context) ([]int, error) {
	inventory, err := r.gw2.CharacterInventory(ctx, r.character)
	if err != nil {
		return nil, err
	}
	bank, err := r.gw2.BankContent(ctx)
	if err != nil {
		return nil, err
	}
	materials, err := r.gw2.Materials(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]models.OwnedItemStack, 0, len(inventory)+len(bank)+len(materials))
	all = append(all, inventory...)
	all = append(all, bank...)
	all = append(all, materials...)

	return dedupStackIDs(all), nil
}

// GetStatus returns the refresher state for the status endpoint.
func (r *PriceRefresher) GetStatus() RefreshStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	updatedAt, ok, err := database.CollectionUpdatedAt(r.db, tpPricesCollection)
	stale := true
	if err == nil {
		stale = needsRefresh(updatedAt, ok, r.staleAfter, time.Now())
	}

	return RefreshStatus{
		LastRun:      r.lastRun,
		LastError:    r.lastError,
		PricesCached: r.pricesCached,
		Stale:        stale,
	}
}

func (r *PriceRefresher) setError(err error) {
	r.mu.Lock()
	r.lastError = err.Error()
	r.mu.Unlock()
}

// needsRefresh implements the staleness gate: refresh when the collection
// was never stamped or the stamp is at least staleAfter old.
func needsRefresh(updatedAt time.Time, ok bool, staleAfter time.Duration, now time.Time) bool {
	if !ok {
		return true
	}
	return now.Sub(updatedAt) >= staleAfter
}

// chunkIDs partitions ids into fixed-size batches, keeping the final
// partial batch.
func chunkIDs(ids []int, size int) [][]int {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]int, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// dedupStackIDs returns the unique item ids across stacks, preserving first
// occurrence order.
func dedupStackIDs(stacks []models.OwnedItemStack) []int {
	seen := make(map[int]struct{}, len(stacks))
	ids := make([]int, 0, len(stacks))
	for _, stack := range stacks {
		if _, ok := seen[stack.ItemID]; ok {
			continue
		}
		seen[stack.ItemID] = struct{}{}
		ids = append(ids, stack.ItemID)
	}
	return ids
}
