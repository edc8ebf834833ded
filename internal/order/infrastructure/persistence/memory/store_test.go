package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestOrder(clientID, symbol string, side domain.OrderSide, qty string) *domain.Order {
	return domain.NewOrder(clientID, symbol, side, domain.TypeMarket, dec(qty), decimal.NullDecimal{}, domain.TIFGtc)
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	order := newTestOrder("c1", "XAUUSD", domain.SideBuy, "10")
	if err := store.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if order.ID == 0 {
		t.Fatalf("id mismatch! should be non-zero but got 0")
	}

	if err := store.Create(ctx, order); err == nil {
		t.Fatalf("duplicate create should fail but got nil error")
	}

	got, err := store.Get(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("order mismatch! should be found but got nil")
	}
	if got.OrderID != order.OrderID || got.ClientID != "c1" || got.Symbol != "XAUUSD" {
		t.Fatalf("order fields mismatch! got %+v", got)
	}
	if got.Status != domain.StatusNew {
		t.Fatalf("status mismatch! should be %v but got %v", domain.StatusNew, got.Status)
	}

	missing, err := store.Get(ctx, "ORD-unknown")
	if err != nil {
		t.Fatalf("get unknown failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown order mismatch! should be nil but got %+v", missing)
	}
}

func TestStoreCopyIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	order := newTestOrder("c1", "XAUUSD", domain.SideBuy, "10")
	if err := store.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 调用方改动创建后的原对象，不应影响存储中的副本。
	order.CumQty = dec("999")

	got, _ := store.Get(ctx, order.OrderID)
	if !got.CumQty.IsZero() {
		t.Fatalf("cum_qty mismatch! should be 0 but got %v", got.CumQty)
	}

	// 改动读出的副本也不应写穿回存储。
	got.Status = domain.StatusCanceled
	again, _ := store.Get(ctx, order.OrderID)
	if again.Status != domain.StatusNew {
		t.Fatalf("status mismatch! should be %v but got %v", domain.StatusNew, again.Status)
	}

	// 读出的副本自带可用状态机，互不串扰。
	if err := again.MarkPendingSend(ctx); err != nil {
		t.Fatalf("mark pending send on copy failed: %v", err)
	}
	final, _ := store.Get(ctx, order.OrderID)
	if final.Status != domain.StatusNew {
		t.Fatalf("status mismatch! should be %v but got %v", domain.StatusNew, final.Status)
	}
}

func TestStoreSave(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	order := newTestOrder("c1", "XAUUSD", domain.SideBuy, "10")
	if err := store.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	createdAt := order.CreatedAt

	order.Status = domain.StatusSent
	order.CumQty = dec("4")
	if err := store.Save(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, _ := store.Get(ctx, order.OrderID)
	if got.Status != domain.StatusSent {
		t.Fatalf("status mismatch! should be %v but got %v", domain.StatusSent, got.Status)
	}
	if !got.CumQty.Equal(dec("4")) {
		t.Fatalf("cum_qty mismatch! should be 4 but got %v", got.CumQty)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("created_at mismatch! should be stable across saves")
	}
	if got.UpdatedAt.Before(createdAt) {
		t.Fatalf("updated_at mismatch! should be refreshed on save")
	}

	// 未经 Create 直接 Save 的订单应得到 ID（upsert 语义）。
	fresh := newTestOrder("c2", "EURUSD", domain.SideSell, "5")
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatalf("save fresh failed: %v", err)
	}
	if fresh.ID == 0 {
		t.Fatalf("id mismatch! should be non-zero but got 0")
	}
	if got, _ := store.Get(ctx, fresh.OrderID); got == nil {
		t.Fatalf("fresh order mismatch! should be found but got nil")
	}
}

func TestStoreListFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	seed := []struct {
		clientID string
		symbol   string
		side     domain.OrderSide
		status   domain.OrderStatus
	}{
		{"c1", "XAUUSD", domain.SideBuy, domain.StatusNew},
		{"c1", "EURUSD", domain.SideSell, domain.StatusFilled},
		{"c2", "XAUUSD", domain.SideBuy, domain.StatusNew},
		{"c1", "XAUUSD", domain.SideSell, domain.StatusCanceled},
	}
	ids := make([]string, len(seed))
	for i, s := range seed {
		o := newTestOrder(s.clientID, s.symbol, s.side, "10")
		o.Status = s.status
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("create seed %d failed: %v", i, err)
		}
		ids[i] = o.OrderID
	}

	testCases := []struct {
		desc    string
		filter  domain.OrderFilter
		wantIDs []string
	}{
		{
			desc:    "by client newest first",
			filter:  domain.OrderFilter{ClientID: "c1"},
			wantIDs: []string{ids[3], ids[1], ids[0]},
		},
		{
			desc:    "by symbol",
			filter:  domain.OrderFilter{Symbol: "EURUSD"},
			wantIDs: []string{ids[1]},
		},
		{
			desc:    "by status",
			filter:  domain.OrderFilter{Status: domain.StatusNew},
			wantIDs: []string{ids[2], ids[0]},
		},
		{
			desc:    "client and symbol combined",
			filter:  domain.OrderFilter{ClientID: "c1", Symbol: "XAUUSD"},
			wantIDs: []string{ids[3], ids[0]},
		},
		{
			desc:    "limit",
			filter:  domain.OrderFilter{Limit: 2},
			wantIDs: []string{ids[3], ids[2]},
		},
		{
			desc:    "offset and limit",
			filter:  domain.OrderFilter{Offset: 1, Limit: 2},
			wantIDs: []string{ids[2], ids[1]},
		},
		{
			desc:    "offset beyond range",
			filter:  domain.OrderFilter{Offset: 10},
			wantIDs: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := store.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("result count mismatch! should be %d but got %d", len(tc.wantIDs), len(got))
			}
			for i, want := range tc.wantIDs {
				if got[i].OrderID != want {
					t.Fatalf("order at %d mismatch! should be %s but got %s", i, want, got[i].OrderID)
				}
			}
		})
	}
}

func TestStoreExecutions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	order := newTestOrder("c1", "XAUUSD", domain.SideBuy, "10")
	if err := store.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	e1 := domain.NewExecution(order.OrderID, dec("4"), dec("2000"))
	e2 := domain.NewExecution(order.OrderID, dec("6"), dec("2600"))
	for _, e := range []*domain.Execution{e1, e2} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if e.ID == 0 {
			t.Fatalf("exec id mismatch! should be non-zero but got 0")
		}
	}

	byOrder, err := store.ListByOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("list by order failed: %v", err)
	}
	if len(byOrder) != 2 {
		t.Fatalf("exec count mismatch! should be 2 but got %d", len(byOrder))
	}
	if byOrder[0].ExecID != e1.ExecID || byOrder[1].ExecID != e2.ExecID {
		t.Fatalf("exec order mismatch! got %s, %s", byOrder[0].ExecID, byOrder[1].ExecID)
	}

	// 读出的是副本：改动后重新读取不受影响。
	byOrder[0].Quantity = dec("999")
	again, _ := store.ListByOrder(ctx, order.OrderID)
	if !again[0].Quantity.Equal(dec("4")) {
		t.Fatalf("exec quantity mismatch! should be 4 but got %v", again[0].Quantity)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("exec total mismatch! should be 2 but got %d", len(all))
	}

	empty, err := store.ListByOrder(ctx, "ORD-unknown")
	if err != nil {
		t.Fatalf("list unknown failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("exec count mismatch! should be 0 but got %d", len(empty))
	}
}

func TestStoreByClient(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	buy := newTestOrder("c1", "XAUUSD", domain.SideBuy, "10")
	sell := newTestOrder("c1", "XAUUSD", domain.SideSell, "2")
	eur := newTestOrder("c1", "EURUSD", domain.SideSell, "5")
	other := newTestOrder("c2", "XAUUSD", domain.SideBuy, "7")
	for _, o := range []*domain.Order{buy, sell, eur, other} {
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	execs := []*domain.Execution{
		domain.NewExecution(buy.OrderID, dec("4"), dec("2000")),
		domain.NewExecution(buy.OrderID, dec("6"), dec("2600")),
		domain.NewExecution(sell.OrderID, dec("2"), dec("2300")),
		domain.NewExecution(eur.OrderID, dec("5"), dec("1.1")),
		domain.NewExecution(other.OrderID, dec("7"), dec("2100")),
	}
	for _, e := range execs {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	positions, err := store.ByClient(ctx, "c1")
	if err != nil {
		t.Fatalf("by client failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("position count mismatch! should be 2 but got %d", len(positions))
	}

	// 符号按字典序返回。
	if positions[0].Symbol != "EURUSD" || positions[1].Symbol != "XAUUSD" {
		t.Fatalf("symbol order mismatch! got %s, %s", positions[0].Symbol, positions[1].Symbol)
	}

	eurPos := positions[0]
	if !eurPos.NetQty.Equal(dec("-5")) {
		t.Fatalf("net_qty mismatch! should be -5 but got %v", eurPos.NetQty)
	}
	if !eurPos.AvgPx.Equal(dec("1.1")) {
		t.Fatalf("avg_px mismatch! should be 1.1 but got %v", eurPos.AvgPx)
	}

	// 净持仓 = 4 + 6 - 2 = 8，均价为双向合计的量加权：
	// (4*2000 + 6*2600 + 2*2300) / 12 = 2350。
	xauPos := positions[1]
	if !xauPos.NetQty.Equal(dec("8")) {
		t.Fatalf("net_qty mismatch! should be 8 but got %v", xauPos.NetQty)
	}
	if !xauPos.AvgPx.Equal(dec("2350")) {
		t.Fatalf("avg_px mismatch! should be 2350 but got %v", xauPos.AvgPx)
	}

	// 对未知客户返回空集而非报错。
	none, err := store.ByClient(ctx, "c3")
	if err != nil {
		t.Fatalf("by client unknown failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("position count mismatch! should be 0 but got %d", len(none))
	}
}
