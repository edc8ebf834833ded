package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/infrastructure/persistence/memory"
)

func newTestService() *MarketDataService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMarketDataService(memory.NewStore(), logger)
}

func TestSeedAndLookup(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.Seed(ctx, map[string]float64{
		"EURUSD": 1.1,
		"xauusd": 2000,
		"BROKEN": -5,
	})

	tests := []struct {
		name   string
		symbol string
		valid  bool
		price  string
	}{
		{name: "known symbol", symbol: "EURUSD", valid: true, price: "1.1"},
		{name: "lowercase lookup", symbol: "eurusd", valid: true, price: "1.1"},
		{name: "seed key normalized", symbol: "XAUUSD", valid: true, price: "2000"},
		{name: "negative seed skipped", symbol: "BROKEN", valid: false},
		{name: "unknown symbol", symbol: "GBPUSD", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ReferencePrice(ctx, tt.symbol)
			if err != nil {
				t.Fatalf("reference price: %v", err)
			}
			if got.Valid != tt.valid {
				t.Fatalf("valid mismatch! should be %v but got %v", tt.valid, got.Valid)
			}
			if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.price)) {
				t.Fatalf("price mismatch! should be %v but got %v", tt.price, got.Decimal)
			}
		})
	}
}

func TestSetPriceValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.SetPrice(ctx, "", decimal.NewFromInt(1)); err == nil {
		t.Fatalf("empty symbol should be rejected")
	}
	if err := svc.SetPrice(ctx, "EURUSD", decimal.Zero); err == nil {
		t.Fatalf("zero price should be rejected")
	}
	if err := svc.SetPrice(ctx, "EURUSD", decimal.NewFromInt(-1)); err == nil {
		t.Fatalf("negative price should be rejected")
	}

	if err := svc.SetPrice(ctx, " eurusd ", decimal.RequireFromString("1.25")); err != nil {
		t.Fatalf("set price: %v", err)
	}
	got, err := svc.ReferencePrice(ctx, "EURUSD")
	if err != nil || !got.Valid {
		t.Fatalf("price should be stored, got valid=%v err=%v", got.Valid, err)
	}
	if !got.Decimal.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("price mismatch! should be %v but got %v", "1.25", got.Decimal)
	}
}

func TestListPricesSorted(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.Seed(ctx, map[string]float64{"XAUUSD": 2000, "EURUSD": 1.1})

	prices, err := svc.ListPrices(ctx)
	if err != nil {
		t.Fatalf("list prices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("price count mismatch! should be %v but got %v", 2, len(prices))
	}
	if prices[0].Symbol != "EURUSD" || prices[1].Symbol != "XAUUSD" {
		t.Fatalf("order mismatch! got %v then %v", prices[0].Symbol, prices[1].Symbol)
	}
	if prices[0].Price != "1.1" {
		t.Fatalf("price mismatch! should be %v but got %v", "1.1", prices[0].Price)
	}
}
