package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGW2(t *testing.T, handler http.HandlerFunc) *GW2Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewGW2Service("test-key")
	svc.baseURL = server.URL
	return svc
}

func TestGW2SendsBearerToken(t *testing.T) {
	var gotAuth string
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"name":"Test Char","race":"Asura","profession":"Engineer","level":80}`))
	})

	character, err := svc.Character(context.Background(), "Test Char")
	if err != nil {
		t.Fatalf("Character: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if character.Name != "Test Char" || character.Level != 80 {
		t.Errorf("character = %+v", character)
	}
}

func TestGW2NotFound(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"text":"no such id"}`, http.StatusNotFound)
	})

	if _, err := svc.Item(context.Background(), 999999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGW2InventoryFlattensBags(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/characters/Test%20Char/inventory" && r.URL.Path != "/characters/Test Char/inventory" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"bags":[
			{"id":80,"size":20,"inventory":[
				{"id":19700,"count":50},
				null,
				{"id":30684,"count":1,"binding":"Character"}
			]},
			{"id":81,"size":4,"inventory":[null,{"id":19697,"count":12}]}
		]}`))
	})

	stacks, err := svc.CharacterInventory(context.Background(), "Test Char")
	if err != nil {
		t.Fatalf("CharacterInventory: %v", err)
	}
	if len(stacks) != 3 {
		t.Fatalf("stacks = %d, want 3 (null slots skipped)", len(stacks))
	}
	if stacks[0].ItemID != 19700 || stacks[0].Count != 50 {
		t.Errorf("stacks[0] = %+v", stacks[0])
	}
	if !stacks[1].Bound() || stacks[1].Binding != "Character" {
		t.Errorf("stacks[1] = %+v, want character-bound", stacks[1])
	}
	if stacks[2].ItemID != 19697 {
		t.Errorf("stacks[2] = %+v", stacks[2])
	}
	for _, stack := range stacks {
		if stack.CharacterName != "Test Char" {
			t.Errorf("stack %d missing character name", stack.ItemID)
		}
	}
}

func TestGW2MaterialsSkipsEmpty(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":19700,"category":5,"count":250},
			{"id":19701,"category":5,"count":0},
			{"id":19702,"category":5,"count":3}
		]`))
	})

	stacks, err := svc.Materials(context.Background())
	if err != nil {
		t.Fatalf("Materials: %v", err)
	}
	if len(stacks) != 2 {
		t.Fatalf("stacks = %d, want 2 (zero counts skipped)", len(stacks))
	}
}

func TestGW2PricesEmptySideIsNil(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "19700,30684" {
			t.Errorf("ids = %q, want 19700,30684", got)
		}
		w.Write([]byte(`[
			{"id":19700,"buys":{"quantity":1000,"unit_price":45},"sells":{"quantity":500,"unit_price":52}},
			{"id":30684,"buys":{"quantity":0,"unit_price":0},"sells":{"quantity":2,"unit_price":20000000}}
		]`))
	})

	prices, err := svc.Prices(context.Background(), []int{19700, 30684})
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("prices = %d, want 2", len(prices))
	}

	first := prices[0]
	if first.BuyUnitPrice == nil || *first.BuyUnitPrice != 45 {
		t.Errorf("BuyUnitPrice = %v, want 45", first.BuyUnitPrice)
	}
	if first.SellUnitPrice == nil || *first.SellUnitPrice != 52 {
		t.Errorf("SellUnitPrice = %v, want 52", first.SellUnitPrice)
	}

	second := prices[1]
	if second.BuyUnitPrice != nil {
		t.Errorf("BuyUnitPrice = %v for empty order book, want nil", *second.BuyUnitPrice)
	}
	if second.SellUnitPrice == nil || *second.SellUnitPrice != 20000000 {
		t.Errorf("SellUnitPrice = %v, want 20000000", second.SellUnitPrice)
	}
	if !second.HasMarket() {
		t.Error("HasMarket() = false with a live sell side")
	}
}

func TestGW2PricesBatchTooLarge(t *testing.T) {
	svc := NewGW2Service("")
	ids := make([]int, priceChunkSize+1)
	if _, err := svc.Prices(context.Background(), ids); err == nil {
		t.Error("Prices accepted a batch over the page size")
	}
}

func TestGW2WalletCoins(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":2,"value":500},{"id":1,"value":123456},{"id":23,"value":9}]`))
	})

	coins, err := svc.WalletCoins(context.Background())
	if err != nil {
		t.Fatalf("WalletCoins: %v", err)
	}
	if coins != 123456 {
		t.Errorf("coins = %d, want 123456", coins)
	}
}

func TestGW2WalletCoinsAbsent(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":2,"value":500}]`))
	})

	coins, err := svc.WalletCoins(context.Background())
	if err != nil {
		t.Fatalf("WalletCoins: %v", err)
	}
	if coins != 0 {
		t.Errorf("coins = %d, want 0 when the coin entry is absent", coins)
	}
}

func TestGW2ItemPayload(t *testing.T) {
	svc := newTestGW2(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":30684,"name":"Frostfang","rarity":"Legendary","vendor_value":100000,"flags":["NoSell","AccountBindOnUse"]}`))
	})

	item, err := svc.Item(context.Background(), 30684)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Name != "Frostfang" {
		t.Errorf("Name = %q", item.Name)
	}
	if item.VendorSellable() {
		t.Error("VendorSellable() = true with NoSell flag")
	}
}
