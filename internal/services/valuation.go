package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/gw2tools/gw2-session-tracker/internal/metrics"
	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// DisposalChannel is where an item is best turned into coin.
type DisposalChannel string

const (
	ChannelVendor      DisposalChannel = "vendor"
	ChannelTradingPost DisposalChannel = "trading_post"
	ChannelNone        DisposalChannel = "none"
)

// HoldingCategory keys the persisted per-character aggregate values.
type HoldingCategory string

const (
	CategoryInventory HoldingCategory = "inventory"
	CategoryMaterials HoldingCategory = "materials"
	CategoryCoins     HoldingCategory = "coins"
)

// Collaborator ports. The concrete ItemCatalog, PriceService and
// SnapshotStore satisfy these; tests substitute fakes.
type metadataSource interface {
	Get(ctx context.Context, itemID int) (*models.ItemMetadata, error)
}

type unitPriceSource interface {
	PriceOrZero(ctx context.Context, itemID int, side models.TradeSide) int64
}

type snapshotStore interface {
	SaveCategoryValue(character string, category HoldingCategory, value int64) error
}

// ChooseChannel decides the best disposal channel for one stack. Vendors
// beat the trading post on ties, which also spares a market lookup when the
// vendor price alone suffices. tpSell must be the sell-side unit price and
// is ignored for bound stacks.
func ChooseChannel(item *models.ItemMetadata, bound bool, tpSell int64) DisposalChannel {
	var vendorValue int64
	if item.VendorSellable() {
		vendorValue = item.VendorValue
	}

	var tpValue int64
	if !bound {
		tpValue = tpSell
	}

	if vendorValue == 0 && tpValue == 0 {
		return ChannelNone
	}
	if vendorValue >= tpValue {
		return ChannelVendor
	}
	return ChannelTradingPost
}

// StackValue is the valuation outcome for a single stack.
type StackValue struct {
	ItemID    int             `json:"item_id"`
	Name      string          `json:"name,omitempty"`
	Channel   DisposalChannel `json:"channel"`
	UnitPrice int64           `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Value     int64           `json:"value"`
}

// ValuationResult is one collection valued: the total plus the per-stack
// breakdown, sorted by value descending.
type ValuationResult struct {
	Total   int64        `json:"total"`
	Items   []StackValue `json:"items"`
	Skipped int          `json:"skipped"`
}

// Valuer sums stack values across a collection using the channel selector
// and the price resolver, and persists per-category totals.
type Valuer struct {
	catalog   metadataSource
	prices    unitPriceSource
	snapshots snapshotStore
}

func NewValuer(catalog metadataSource, prices unitPriceSource, snapshots snapshotStore) *Valuer {
	return &Valuer{
		catalog:   catalog,
		prices:    prices,
		snapshots: snapshots,
	}
}

// ValueStacks values every stack in the collection. Stacks whose metadata
// cannot be resolved are skipped and counted, never zero-valued; a single
// bad item must not abort the pass.
func (v *Valuer) ValueStacks(ctx context.Context, stacks []models.OwnedItemStack, side models.TradeSide) ValuationResult {
	start := time.Now()
	result := ValuationResult{}

	for _, stack := range stacks {
		item, err := v.catalog.Get(ctx, stack.ItemID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("Valuer: failed to resolve item %d: %v", stack.ItemID, err)
			} else {
				log.Printf("Valuer: no item with id %d found, skipping", stack.ItemID)
			}
			result.Skipped++
			metrics.ValuationItemsSkipped.Inc()
			continue
		}

		// Market value is only consulted for stacks that can be listed,
		// so bound or NoSell stacks never trigger a price lookup.
		var tpSell int64
		if !stack.Bound() && item.MarketSellable() {
			tpSell = v.prices.PriceOrZero(ctx, stack.ItemID, models.SideSell)
		}

		channel := ChooseChannel(item, stack.Bound(), tpSell)
		if channel == ChannelNone {
			continue
		}

		var unitPrice int64
		switch channel {
		case ChannelVendor:
			unitPrice = item.VendorValue
		case ChannelTradingPost:
			unitPrice = tpSell
			if side != models.SideSell {
				unitPrice = v.prices.PriceOrZero(ctx, stack.ItemID, side)
				if unitPrice == 0 {
					// No listings on the requested side. Treat the stack
					// like an unlisted item: vendor when possible,
					// otherwise leave it out rather than count it at zero.
					if item.VendorSellable() && item.VendorValue > 0 {
						channel = ChannelVendor
						unitPrice = item.VendorValue
					} else {
						continue
					}
				}
			}
		}

		value := unitPrice * stack.Count
		result.Total += value
		result.Items = append(result.Items, StackValue{
			ItemID:    stack.ItemID,
			Name:      item.Name,
			Channel:   channel,
			UnitPrice: unitPrice,
			Quantity:  stack.Count,
			Value:     value,
		})
	}

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Value > result.Items[j].Value
	})

	metrics.ValuationDuration.Observe(time.Since(start).Seconds())
	return result
}

// ExpensiveLimit is the default unit-price threshold for the expensive-item
// scan: one gold.
const ExpensiveLimit = 10000

// ExpensiveItems values the stacks and returns those whose chosen-channel
// unit price exceeds the limit, most valuable first.
func (v *Valuer) ExpensiveItems(ctx context.Context, stacks []models.OwnedItemStack, limit int64) []StackValue {
	if limit <= 0 {
		limit = ExpensiveLimit
	}
	result := v.ValueStacks(ctx, stacks, models.SideSell)
	var expensive []StackValue
	for _, item := range result.Items {
		if item.UnitPrice > limit {
			expensive = append(expensive, item)
		}
	}
	return expensive
}

// ValueCategory values a holdings collection and persists the aggregate for
// the character under the given category, overwriting the prior value.
func (v *Valuer) ValueCategory(ctx context.Context, character string, category HoldingCategory, stacks []models.OwnedItemStack, side models.TradeSide) (ValuationResult, error) {
	result := v.ValueStacks(ctx, stacks, side)
	log.Printf("Valuer: %s value for %s: %s", category, character, models.FormatCoins(result.Total))

	if err := v.snapshots.SaveCategoryValue(character, category, result.Total); err != nil {
		return result, err
	}
	return result, nil
}
