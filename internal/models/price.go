package models

import (
	"time"
)

// TradeSide selects which side of the order book a unit price comes from.
type TradeSide string

const (
	SideBuy  TradeSide = "buys"
	SideSell TradeSide = "sells"
)

// TradingPostPrice caches the marketplace unit prices for one item. A nil
// side means the order book has no listings there; both sides nil means the
// item has no market at all.
type TradingPostPrice struct {
	ItemID        int       `json:"item_id" gorm:"primaryKey"`
	BuyUnitPrice  *int64    `json:"buy_unit_price"`
	SellUnitPrice *int64    `json:"sell_unit_price"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// HasMarket reports whether at least one side of the book has listings.
func (p *TradingPostPrice) HasMarket() bool {
	return p.BuyUnitPrice != nil || p.SellUnitPrice != nil
}

// UnitPrice returns the requested side's unit price, nil when that side has
// no listings.
func (p *TradingPostPrice) UnitPrice(side TradeSide) *int64 {
	if side == SideBuy {
		return p.BuyUnitPrice
	}
	return p.SellUnitPrice
}
