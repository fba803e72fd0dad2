package services

import (
	"context"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// CurrencyCatalog caches wallet-currency metadata, fetched once from the
// remote catalog and kept in sqlite thereafter.
type CurrencyCatalog struct {
	db  *gorm.DB
	gw2 *GW2Service
}

func NewCurrencyCatalog(db *gorm.DB, gw2 *GW2Service) *CurrencyCatalog {
	return &CurrencyCatalog{db: db, gw2: gw2}
}

// All returns every known currency, populating the cache on first use.
func (c *CurrencyCatalog) All(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := c.db.Order(`"order"`).Find(&currencies).Error; err != nil {
		return nil, err
	}
	if len(currencies) > 0 {
		return currencies, nil
	}

	fetched, err := c.gw2.AllCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	if len(fetched) > 0 {
		err := c.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(fetched, 100).Error
		if err != nil {
			log.Printf("Currency catalog: failed to store currencies: %v", err)
		}
	}
	return fetched, nil
}

// Name returns the display name for a currency id, empty when unknown.
func (c *CurrencyCatalog) Name(ctx context.Context, currencyID int) string {
	currencies, err := c.All(ctx)
	if err != nil {
		return ""
	}
	for _, currency := range currencies {
		if currency.ID == currencyID {
			return currency.Name
		}
	}
	return ""
}
