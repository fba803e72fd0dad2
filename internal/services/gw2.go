package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/gw2tools/gw2-session-tracker/internal/metrics"
	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

const (
	gw2BaseURL        = "https://api.guildwars2.com/v2"
	gw2DefaultTimeout = 10 * time.Second
	gw2MaxRetries     = 3

	// priceChunkSize is the page-size limit of the bulk id endpoints.
	priceChunkSize = 30

	// coinCurrencyID is the wallet id of plain coin.
	coinCurrencyID = 1
)

// GW2Service is the authenticated client for the remote catalog/market
// service. Requests are paced and retried with bounded backoff; persistent
// failures surface as ErrRemoteUnavailable, missing records as ErrNotFound.
type GW2Service struct {
	client  *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewGW2Service creates a catalog client with the given API credential.
func NewGW2Service(apiKey string) *GW2Service {
	return &GW2Service{
		client: &http.Client{
			Timeout: gw2DefaultTimeout,
		},
		apiKey:  apiKey,
		baseURL: gw2BaseURL,
		// The public API allows ~5 req/s per key before throttling kicks in.
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// Character is the remote character record.
type Character struct {
	Name       string `json:"name"`
	Race       string `json:"race"`
	Profession string `json:"profession"`
	Level      int    `json:"level"`
}

type inventorySlot struct {
	ID      int    `json:"id"`
	Count   int64  `json:"count"`
	Binding string `json:"binding"`
}

type inventoryBag struct {
	ID        int              `json:"id"`
	Size      int              `json:"size"`
	Inventory []*inventorySlot `json:"inventory"`
}

type characterInventory struct {
	Bags []inventoryBag `json:"bags"`
}

type materialSlot struct {
	ID       int   `json:"id"`
	Category int   `json:"category"`
	Count    int64 `json:"count"`
}

// WalletEntry is one currency balance from the account wallet.
type WalletEntry struct {
	CurrencyID int   `json:"id"`
	Value      int64 `json:"value"`
}

type itemPayload struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Rarity      string   `json:"rarity"`
	VendorValue int64    `json:"vendor_value"`
	Flags       []string `json:"flags"`
}

type priceListing struct {
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type pricePayload struct {
	ID    int          `json:"id"`
	Buys  priceListing `json:"buys"`
	Sells priceListing `json:"sells"`
}

type currencyPayload struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// get fetches a JSON endpoint into out, pacing through the limiter and
// retrying transient failures. The endpoint label feeds request metrics.
func (s *GW2Service) get(ctx context.Context, endpoint, path string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	op := func() error {
		metrics.GW2RequestsTotal.WithLabelValues(endpoint).Inc()

		req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%s: %w", path, ErrNotFound))
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// A malformed payload is treated the same as a failed call.
			return backoff.Permanent(fmt.Errorf("%w: decode: %v", ErrRemoteUnavailable, err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), gw2MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		metrics.GW2RequestErrorsTotal.WithLabelValues(endpoint).Inc()
		return err
	}
	return nil
}

// Character fetches the character record by name.
func (s *GW2Service) Character(ctx context.Context, name string) (*Character, error) {
	var character Character
	path := "/characters/" + url.PathEscape(name)
	if err := s.get(ctx, "character", path, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// CharacterInventory flattens the character's bags into owned stacks,
// skipping empty slots.
func (s *GW2Service) CharacterInventory(ctx context.Context, name string) ([]models.OwnedItemStack, error) {
	var inventory characterInventory
	path := "/characters/" + url.PathEscape(name) + "/inventory"
	if err := s.get(ctx, "inventory", path, &inventory); err != nil {
		return nil, fmt.Errorf("failed to fetch character inventory: %w", err)
	}

	var stacks []models.OwnedItemStack
	for _, bag := range inventory.Bags {
		for _, slot := range bag.Inventory {
			if slot == nil {
				continue
			}
			stacks = append(stacks, models.OwnedItemStack{
				ItemID:        slot.ID,
				Count:         slot.Count,
				Binding:       slot.Binding,
				CharacterName: name,
			})
		}
	}
	return stacks, nil
}

// BankContent returns account bank stacks, skipping empty slots.
func (s *GW2Service) BankContent(ctx context.Context) ([]models.OwnedItemStack, error) {
	var slots []*inventorySlot
	if err := s.get(ctx, "bank", "/account/bank", &slots); err != nil {
		return nil, fmt.Errorf("failed to fetch bank content: %w", err)
	}

	var stacks []models.OwnedItemStack
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		stacks = append(stacks, models.OwnedItemStack{
			ItemID:  slot.ID,
			Count:   slot.Count,
			Binding: slot.Binding,
		})
	}
	return stacks, nil
}

// Materials returns account materials-storage stacks, skipping empty slots.
func (s *GW2Service) Materials(ctx context.Context) ([]models.OwnedItemStack, error) {
	var slots []materialSlot
	if err := s.get(ctx, "materials", "/account/materials", &slots); err != nil {
		return nil, fmt.Errorf("failed to fetch materials storage: %w", err)
	}

	var stacks []models.OwnedItemStack
	for _, slot := range slots {
		if slot.Count == 0 {
			continue
		}
		stacks = append(stacks, models.OwnedItemStack{
			ItemID: slot.ID,
			Count:  slot.Count,
		})
	}
	return stacks, nil
}

// Wallet returns all currency balances from the account wallet.
func (s *GW2Service) Wallet(ctx context.Context) ([]WalletEntry, error) {
	var entries []WalletEntry
	if err := s.get(ctx, "wallet", "/account/wallet", &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}
	return entries, nil
}

// WalletCoins returns the coin balance from the account wallet. A wallet
// without a coin entry counts as zero.
func (s *GW2Service) WalletCoins(ctx context.Context) (int64, error) {
	entries, err := s.Wallet(ctx)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.CurrencyID == coinCurrencyID {
			return entry.Value, nil
		}
	}
	return 0, nil
}

// Item fetches metadata for a single item id.
func (s *GW2Service) Item(ctx context.Context, itemID int) (*models.ItemMetadata, error) {
	var payload itemPayload
	path := "/items/" + strconv.Itoa(itemID)
	if err := s.get(ctx, "item", path, &payload); err != nil {
		return nil, err
	}
	return itemFromPayload(payload), nil
}

// Items fetches metadata for up to priceChunkSize ids in one call.
func (s *GW2Service) Items(ctx context.Context, ids []int) ([]models.ItemMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > priceChunkSize {
		return nil, fmt.Errorf("items batch of %d exceeds page size %d", len(ids), priceChunkSize)
	}

	var payloads []itemPayload
	path := "/items?ids=" + joinIDs(ids)
	if err := s.get(ctx, "items", path, &payloads); err != nil {
		return nil, err
	}

	items := make([]models.ItemMetadata, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, *itemFromPayload(p))
	}
	return items, nil
}

// Price fetches the trading-post price for a single item id.
func (s *GW2Service) Price(ctx context.Context, itemID int) (*models.TradingPostPrice, error) {
	var payload pricePayload
	path := "/commerce/prices/" + strconv.Itoa(itemID)
	if err := s.get(ctx, "price", path, &payload); err != nil {
		return nil, err
	}
	return priceFromPayload(payload, time.Now()), nil
}

// Prices fetches trading-post prices for up to priceChunkSize ids in one
// call. Unlisted ids are simply absent from the result.
func (s *GW2Service) Prices(ctx context.Context, ids []int) ([]models.TradingPostPrice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > priceChunkSize {
		return nil, fmt.Errorf("prices batch of %d exceeds page size %d", len(ids), priceChunkSize)
	}

	var payloads []pricePayload
	path := "/commerce/prices?ids=" + joinIDs(ids)
	if err := s.get(ctx, "prices", path, &payloads); err != nil {
		return nil, err
	}

	now := time.Now()
	prices := make([]models.TradingPostPrice, 0, len(payloads))
	for _, p := range payloads {
		prices = append(prices, *priceFromPayload(p, now))
	}
	return prices, nil
}

// Currency fetches metadata for one wallet currency.
func (s *GW2Service) Currency(ctx context.Context, currencyID int) (*models.Currency, error) {
	var payload currencyPayload
	path := "/currencies/" + strconv.Itoa(currencyID)
	if err := s.get(ctx, "currency", path, &payload); err != nil {
		return nil, err
	}
	currency := currencyFromPayload(payload)
	return &currency, nil
}

// AllCurrencies fetches the full currency catalog.
func (s *GW2Service) AllCurrencies(ctx context.Context) ([]models.Currency, error) {
	var payloads []currencyPayload
	if err := s.get(ctx, "currencies", "/currencies?ids=all", &payloads); err != nil {
		return nil, err
	}

	currencies := make([]models.Currency, 0, len(payloads))
	for _, p := range payloads {
		currencies = append(currencies, currencyFromPayload(p))
	}
	return currencies, nil
}

func itemFromPayload(p itemPayload) *models.ItemMetadata {
	return &models.ItemMetadata{
		ID:          p.ID,
		Name:        p.Name,
		Rarity:      models.Rarity(p.Rarity),
		VendorValue: p.VendorValue,
		Flags:       p.Flags,
	}
}

// priceFromPayload maps a wire price to the cached record. The API reports
// an empty order-book side as zero quantity and zero unit price; that side
// becomes nil so "no listings" stays distinct from "one copper".
func priceFromPayload(p pricePayload, fetchedAt time.Time) *models.TradingPostPrice {
	price := &models.TradingPostPrice{
		ItemID:    p.ID,
		FetchedAt: fetchedAt,
	}
	if p.Buys.Quantity > 0 {
		buy := p.Buys.UnitPrice
		price.BuyUnitPrice = &buy
	}
	if p.Sells.Quantity > 0 {
		sell := p.Sells.UnitPrice
		price.SellUnitPrice = &sell
	}
	return price
}

func currencyFromPayload(p currencyPayload) models.Currency {
	return models.Currency{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Order:       p.Order,
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
