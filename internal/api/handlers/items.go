package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

// The concrete ItemCatalog and PriceService satisfy these.
type itemMetadataSource interface {
	Get(ctx context.Context, itemID int) (*models.ItemMetadata, error)
}

type itemPriceSource interface {
	Price(ctx context.Context, itemID int, side models.TradeSide) (*int64, string, error)
}

type ItemHandler struct {
	catalog    itemMetadataSource
	prices     itemPriceSource
	valuer     *services.Valuer
	gw2        *services.GW2Service
	currencies *services.CurrencyCatalog
}

func NewItemHandler(catalog *services.ItemCatalog, prices *services.PriceService, valuer *services.Valuer, gw2 *services.GW2Service, currencies *services.CurrencyCatalog) *ItemHandler {
	return &ItemHandler{
		catalog:    catalog,
		prices:     prices,
		valuer:     valuer,
		gw2:        gw2,
		currencies: currencies,
	}
}

// GetItem returns an item's metadata, market prices and the disposal channel
// an unbound stack of it would use.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item id must be an integer"})
		return
	}

	item, err := h.catalog.Get(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// Price failures degrade the response to metadata-only rather than
	// failing it, but they are worth distinguishing from "no market" in
	// the logs.
	sell, sellSource, err := h.prices.Price(c.Request.Context(), itemID, models.SideSell)
	if err != nil {
		log.Printf("Item handler: failed to resolve sell price for item %d: %v", itemID, err)
	}
	buy, _, err := h.prices.Price(c.Request.Context(), itemID, models.SideBuy)
	if err != nil {
		log.Printf("Item handler: failed to resolve buy price for item %d: %v", itemID, err)
	}

	var tpSell int64
	if sell != nil {
		tpSell = *sell
	}
	channel := services.ChooseChannel(item, false, tpSell)

	resp := gin.H{
		"item":                   item,
		"vendor_value":           item.VendorValue,
		"vendor_value_formatted": models.FormatCoins(item.VendorValue),
		"channel":                channel,
	}
	if sell != nil {
		resp["sell_price"] = *sell
		resp["sell_price_formatted"] = models.FormatCoins(*sell)
		resp["price_source"] = sellSource
	}
	if buy != nil {
		resp["buy_price"] = *buy
		resp["buy_price_formatted"] = models.FormatCoins(*buy)
	}

	c.JSON(http.StatusOK, resp)
}

// GetExpensiveInventory scans the character's live inventory for stacks
// whose unit price exceeds the limit (default one gold).
func (h *ItemHandler) GetExpensiveInventory(c *gin.Context) {
	character := c.Query("character")
	if character == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character query parameter is required"})
		return
	}

	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	stacks, err := h.gw2.CharacterInventory(c.Request.Context(), character)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	expensive := h.valuer.ExpensiveItems(c.Request.Context(), stacks, limit)
	c.JSON(http.StatusOK, gin.H{
		"character": character,
		"items":     expensive,
	})
}

// GetWallet returns the account wallet with currency names attached.
func (h *ItemHandler) GetWallet(c *gin.Context) {
	entries, err := h.gw2.Wallet(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	type walletCurrency struct {
		CurrencyID int    `json:"currency_id"`
		Name       string `json:"name,omitempty"`
		Value      int64  `json:"value"`
	}

	wallet := make([]walletCurrency, 0, len(entries))
	for _, entry := range entries {
		wallet = append(wallet, walletCurrency{
			CurrencyID: entry.CurrencyID,
			Name:       h.currencies.Name(c.Request.Context(), entry.CurrencyID),
			Value:      entry.Value,
		})
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
