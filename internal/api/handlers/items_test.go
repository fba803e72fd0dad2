package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

type stubItemCatalog struct {
	items map[int]*models.ItemMetadata
}

func (s *stubItemCatalog) Get(_ context.Context, itemID int) (*models.ItemMetadata, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, fmt.Errorf("item %d: %w", itemID, services.ErrNotFound)
}

type stubPriceSource struct {
	sell *int64
	buy  *int64
	err  error
}

func (s *stubPriceSource) Price(_ context.Context, _ int, side models.TradeSide) (*int64, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	if side == models.SideBuy {
		return s.buy, services.PriceSourceCached, nil
	}
	return s.sell, services.PriceSourceCached, nil
}

func newItemTestRouter(h *ItemHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/items/:id", h.GetItem)
	return router
}

func TestGetItemWithPrices(t *testing.T) {
	sell := int64(200)
	buy := int64(150)
	handler := &ItemHandler{
		catalog: &stubItemCatalog{items: map[int]*models.ItemMetadata{
			19700: {ID: 19700, Name: "Copper Ore", VendorValue: 10},
		}},
		prices: &stubPriceSource{sell: &sell, buy: &buy},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/items/19700", nil)
	newItemTestRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["sell_price"] != float64(200) {
		t.Errorf("sell_price = %v, want 200", resp["sell_price"])
	}
	if resp["buy_price"] != float64(150) {
		t.Errorf("buy_price = %v, want 150", resp["buy_price"])
	}
	if resp["channel"] != "trading_post" {
		t.Errorf("channel = %v, want trading_post", resp["channel"])
	}
}

func TestGetItemDegradesOnPriceFailure(t *testing.T) {
	handler := &ItemHandler{
		catalog: &stubItemCatalog{items: map[int]*models.ItemMetadata{
			19700: {ID: 19700, Name: "Copper Ore", VendorValue: 10},
		}},
		prices: &stubPriceSource{err: services.ErrRemoteUnavailable},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/items/19700", nil)
	newItemTestRouter(handler).ServeHTTP(w, req)

	// Metadata still served; the price fields are simply absent.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["sell_price"]; ok {
		t.Error("sell_price present despite price resolution failure")
	}
	if _, ok := resp["buy_price"]; ok {
		t.Error("buy_price present despite price resolution failure")
	}
	if resp["channel"] != "vendor" {
		t.Errorf("channel = %v, want vendor without market data", resp["channel"])
	}
}

func TestGetItemNotFound(t *testing.T) {
	handler := &ItemHandler{
		catalog: &stubItemCatalog{},
		prices:  &stubPriceSource{},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/items/999999", nil)
	newItemTestRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetItemBadID(t *testing.T) {
	handler := &ItemHandler{
		catalog: &stubItemCatalog{},
		prices:  &stubPriceSource{},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/items/not-a-number", nil)
	newItemTestRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
