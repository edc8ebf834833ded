package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	ordermem "github.com/wyfcoding/ordermanagement/internal/order/infrastructure/persistence/memory"
)

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", v, err)
	}
	return d
}

func seedExec(t *testing.T, store *ordermem.Store, clientID, symbol string, side orderdomain.OrderSide, qty, px string) {
	t.Helper()
	ctx := context.Background()

	o := orderdomain.NewOrder(clientID, symbol, side, orderdomain.TypeLimit,
		dec(t, qty), decimal.NullDecimal{Decimal: dec(t, px), Valid: true}, orderdomain.TIFGtc)
	if err := store.Create(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := store.Append(ctx, orderdomain.NewExecution(o.OrderID, dec(t, qty), dec(t, px))); err != nil {
		t.Fatalf("append execution: %v", err)
	}
}

func TestByClientAggregatesBySymbol(t *testing.T) {
	store := ordermem.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewPositionService(store, logger)

	seedExec(t, store, "c1", "EURUSD", orderdomain.SideBuy, "10", "2")
	seedExec(t, store, "c1", "EURUSD", orderdomain.SideSell, "4", "2")
	seedExec(t, store, "c1", "XAUUSD", orderdomain.SideBuy, "1", "2000")
	seedExec(t, store, "c2", "EURUSD", orderdomain.SideBuy, "3", "1.1")

	positions, err := svc.ByClient(context.Background(), "c1")
	if err != nil {
		t.Fatalf("by client: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("position count mismatch! should be %v but got %v", 2, len(positions))
	}

	// 按 symbol 排序：EURUSD 在前
	eur := positions[0]
	if eur.Symbol != "EURUSD" || eur.ClientID != "c1" {
		t.Fatalf("symbol mismatch! should be %v but got %+v", "c1/EURUSD", eur)
	}
	if eur.NetQty != "6" {
		t.Fatalf("net qty mismatch! should be %v but got %v", "6", eur.NetQty)
	}
	// 均价按毛量加权：(10*2 + 4*2) / 14 = 2
	if !dec(t, eur.AvgPx).Equal(dec(t, "2")) {
		t.Fatalf("avg px mismatch! should be %v but got %v", "2", eur.AvgPx)
	}
	if eur.UnrealizedPnl != "0" {
		t.Fatalf("pnl mismatch! should be %v but got %v", "0", eur.UnrealizedPnl)
	}

	gold := positions[1]
	if gold.Symbol != "XAUUSD" || gold.NetQty != "1" {
		t.Fatalf("gold position mismatch! got %+v", gold)
	}
}

func TestByClientEmpty(t *testing.T) {
	store := ordermem.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewPositionService(store, logger)

	positions, err := svc.ByClient(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("by client: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("position count mismatch! should be %v but got %v", 0, len(positions))
	}
}
