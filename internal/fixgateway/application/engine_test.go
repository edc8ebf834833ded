package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/fixgateway/domain"
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/order/infrastructure/messaging"
	"github.com/wyfcoding/ordermanagement/internal/order/infrastructure/persistence/memory"
	"github.com/wyfcoding/ordermanagement/pkg/eventbus"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

type eventSink struct {
	mu     sync.Mutex
	events []orderdomain.Event
}

func (s *eventSink) add(e orderdomain.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *eventSink) snapshot() []orderdomain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orderdomain.Event(nil), s.events...)
}

// statuses 提取 ORDER_UPDATE 事件携带的订单状态序列
func (s *eventSink) statuses() []string {
	var out []string
	for _, e := range s.snapshot() {
		if e.Type != orderdomain.EventOrderUpdate {
			continue
		}
		snap, ok := e.Payload.(orderdomain.OrderSnapshot)
		if !ok {
			continue
		}
		out = append(out, snap.Status)
	}
	return out
}

type engineFixture struct {
	engine *ExecutionEngine
	store  *memory.Store
	bus    *eventbus.Bus[orderdomain.Event]
	locks  *orderdomain.LockRegistry
}

func newEngineFixture(cfg domain.Config) *engineFixture {
	store := memory.NewStore()
	bus := eventbus.New[orderdomain.Event]()
	locks := orderdomain.NewLockRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewExecutionEngine(cfg, store, store, messaging.NewBusPublisher(bus, nil), locks, logger, nil)
	return &engineFixture{engine: engine, store: store, bus: bus, locks: locks}
}

func (f *engineFixture) collect(clientID string) *eventSink {
	sink := &eventSink{}
	f.bus.Subscribe(orderdomain.OrderTopic(clientID), func(_ context.Context, e orderdomain.Event) error {
		sink.add(e)
		return nil
	})
	return sink
}

func (f *engineFixture) seedLimitBuy(t *testing.T, qty, price string) *orderdomain.Order {
	t.Helper()
	o := orderdomain.NewOrder("c1", "XAUUSD", orderdomain.SideBuy, orderdomain.TypeLimit, dec(qty), nullDec(price), orderdomain.TIFGtc)
	if err := f.store.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return o
}

func (f *engineFixture) mustGet(t *testing.T, orderID string) *orderdomain.Order {
	t.Helper()
	o, err := f.store.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if o == nil {
		t.Fatalf("order %s not found", orderID)
	}
	return o
}

func (f *engineFixture) waitStatus(t *testing.T, orderID string, want orderdomain.OrderStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.mustGet(t, orderID).Status == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("status mismatch! should be %v but got %v", want, f.mustGet(t, orderID).Status)
}

func TestEngineFullFill(t *testing.T) {
	f := newEngineFixture(domain.Config{})
	o := f.seedLimitBuy(t, "10", "2000")
	sink := f.collect("c1")

	f.engine.processSend(context.Background(), o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusFilled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusFilled, got.Status)
	}
	if !got.CumQty.Equal(dec("10")) {
		t.Fatalf("cum_qty mismatch! should be %v but got %v", "10", got.CumQty)
	}
	if !got.AvgPx.Valid || !got.AvgPx.Decimal.Equal(dec("2000")) {
		t.Fatalf("avg_px mismatch! should be %v but got %v", "2000", got.AvgPx)
	}

	execs, err := f.store.ListByOrder(context.Background(), o.OrderID)
	if err != nil {
		t.Fatalf("list executions failed: %v", err)
	}
	if len(execs) != 1 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 1, len(execs))
	}
	if !execs[0].Quantity.Equal(dec("10")) || !execs[0].Price.Equal(dec("2000")) {
		t.Fatalf("execution mismatch! should be %v@%v but got %v@%v", "10", "2000", execs[0].Quantity, execs[0].Price)
	}

	wantStatuses := []string{"PENDING_SEND", "SENT", "FILLED"}
	gotStatuses := sink.statuses()
	if len(gotStatuses) != len(wantStatuses) {
		t.Fatalf("event count mismatch! should be %v but got %v", wantStatuses, gotStatuses)
	}
	for i := range wantStatuses {
		if gotStatuses[i] != wantStatuses[i] {
			t.Fatalf("event status mismatch! should be %v but got %v", wantStatuses, gotStatuses)
		}
	}
}

func TestEnginePartialFill(t *testing.T) {
	f := newEngineFixture(domain.Config{PartialProb: 1})
	o := f.seedLimitBuy(t, "10", "2000")
	sink := f.collect("c1")

	f.engine.processSend(context.Background(), o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusFilled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusFilled, got.Status)
	}
	if !got.CumQty.Equal(dec("10")) {
		t.Fatalf("cum_qty mismatch! should be %v but got %v", "10", got.CumQty)
	}
	if !got.AvgPx.Valid || !got.AvgPx.Decimal.Equal(dec("2000")) {
		t.Fatalf("avg_px mismatch! should be %v but got %v", "2000", got.AvgPx)
	}

	execs, err := f.store.ListByOrder(context.Background(), o.OrderID)
	if err != nil {
		t.Fatalf("list executions failed: %v", err)
	}
	if len(execs) != 2 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 2, len(execs))
	}
	if !execs[0].Quantity.Equal(dec("4")) {
		t.Fatalf("first lot mismatch! should be %v but got %v", "4", execs[0].Quantity)
	}
	if !execs[1].Quantity.Equal(dec("6")) {
		t.Fatalf("second lot mismatch! should be %v but got %v", "6", execs[1].Quantity)
	}
	if !execs[0].Price.Equal(execs[1].Price) {
		t.Fatalf("remainder price mismatch! should be %v but got %v", execs[0].Price, execs[1].Price)
	}

	wantStatuses := []string{"PENDING_SEND", "SENT", "PARTIALLY_FILLED", "FILLED"}
	gotStatuses := sink.statuses()
	if len(gotStatuses) != len(wantStatuses) {
		t.Fatalf("event statuses mismatch! should be %v but got %v", wantStatuses, gotStatuses)
	}
	for i := range wantStatuses {
		if gotStatuses[i] != wantStatuses[i] {
			t.Fatalf("event statuses mismatch! should be %v but got %v", wantStatuses, gotStatuses)
		}
	}
}

func TestEngineVenueReject(t *testing.T) {
	f := newEngineFixture(domain.Config{RejectProb: 1})
	o := f.seedLimitBuy(t, "10", "2000")
	sink := f.collect("c1")

	f.engine.processSend(context.Background(), o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusRejected {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusRejected, got.Status)
	}
	if got.RejectReason != domain.RejectReasonFIX {
		t.Fatalf("reject reason mismatch! should be %v but got %v", domain.RejectReasonFIX, got.RejectReason)
	}

	execs, _ := f.store.ListByOrder(context.Background(), o.OrderID)
	if len(execs) != 0 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 0, len(execs))
	}

	events := sink.snapshot()
	if len(events) != 4 {
		t.Fatalf("event count mismatch! should be %v but got %v", 4, len(events))
	}
	last := events[len(events)-1]
	if last.Type != orderdomain.EventOrderReject {
		t.Fatalf("last event type mismatch! should be %v but got %v", orderdomain.EventOrderReject, last.Type)
	}
	detail, ok := last.Payload.(orderdomain.RejectDetail)
	if !ok {
		t.Fatalf("reject payload type mismatch! got %T", last.Payload)
	}
	if detail.Code != domain.RejectReasonFIX {
		t.Fatalf("reject code mismatch! should be %v but got %v", domain.RejectReasonFIX, detail.Code)
	}
	if detail.Order.Status != string(orderdomain.StatusRejected) {
		t.Fatalf("reject order status mismatch! should be %v but got %v", orderdomain.StatusRejected, detail.Order.Status)
	}
}

func TestEngineMarketOrderUsesMockPrice(t *testing.T) {
	testCases := []struct {
		desc   string
		symbol string
		low    string
		high   string
	}{
		{desc: "xau based symbol", symbol: "xauusd", low: "1999", high: "2001"},
		{desc: "fx symbol", symbol: "EURUSD", low: "0.1", high: "2.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			f := newEngineFixture(domain.Config{Seed: 42})
			o := orderdomain.NewOrder("c1", tc.symbol, orderdomain.SideBuy, orderdomain.TypeMarket, dec("5"), decimal.NullDecimal{}, orderdomain.TIFGtc)
			if err := f.store.Create(context.Background(), o); err != nil {
				t.Fatalf("seed order failed: %v", err)
			}

			f.engine.processSend(context.Background(), o.OrderID)

			execs, err := f.store.ListByOrder(context.Background(), o.OrderID)
			if err != nil || len(execs) == 0 {
				t.Fatalf("expected executions, got %v err %v", len(execs), err)
			}
			px := execs[0].Price
			if px.LessThan(dec(tc.low)) || px.GreaterThan(dec(tc.high)) {
				t.Fatalf("mock price out of range! should be in [%v,%v] but got %v", tc.low, tc.high, px)
			}
			if px.Exponent() < -2 {
				t.Fatalf("mock price precision mismatch! should have 2 decimals but got %v", px)
			}
			got := f.mustGet(t, o.OrderID)
			if !got.AvgPx.Valid || !got.AvgPx.Decimal.Equal(px) {
				t.Fatalf("avg_px mismatch! should be %v but got %v", px, got.AvgPx)
			}
		})
	}
}

func TestEngineSendYieldsToCancelRequest(t *testing.T) {
	f := newEngineFixture(domain.Config{})
	o := f.seedLimitBuy(t, "10", "2000")

	ctx := context.Background()
	if err := o.RequestCancel(ctx); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	if err := f.store.Save(ctx, o); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	sink := f.collect("c1")

	f.engine.processSend(ctx, o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusCancelRequested {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusCancelRequested, got.Status)
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("event count mismatch! should be %v but got %v", 0, len(sink.snapshot()))
	}

	f.engine.processCancel(ctx, o.OrderID)

	got = f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusCanceled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusCanceled, got.Status)
	}
	execs, _ := f.store.ListByOrder(ctx, o.OrderID)
	if len(execs) != 0 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 0, len(execs))
	}
}

func TestEngineCancelDuringSendLatency(t *testing.T) {
	f := newEngineFixture(domain.Config{SendLatency: 100 * time.Millisecond})
	o := f.seedLimitBuy(t, "10", "2000")
	sink := f.collect("c1")
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.processSend(ctx, o.OrderID)
	}()

	// 在发送时延窗口内受理取消
	time.Sleep(25 * time.Millisecond)
	unlock := f.locks.Lock(o.OrderID)
	fresh := f.mustGet(t, o.OrderID)
	if err := fresh.RequestCancel(ctx); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	if err := f.store.Save(ctx, fresh); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	unlock()
	<-done

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusCancelRequested {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusCancelRequested, got.Status)
	}
	for _, status := range sink.statuses() {
		if status == string(orderdomain.StatusSent) {
			t.Fatalf("send not aborted! got statuses %v", sink.statuses())
		}
	}

	f.engine.processCancel(ctx, o.OrderID)

	got = f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusCanceled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusCanceled, got.Status)
	}
	if !got.CumQty.IsZero() {
		t.Fatalf("cum_qty mismatch! should be %v but got %v", 0, got.CumQty)
	}
}

func TestEngineCancelAfterPartialFill(t *testing.T) {
	f := newEngineFixture(domain.Config{PartialProb: 1, FillLatency: 100 * time.Millisecond})
	o := f.seedLimitBuy(t, "10", "2000")
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.processSend(ctx, o.OrderID)
	}()

	// 首笔成交落地后、补齐剩余量之前受理取消
	f.waitStatus(t, o.OrderID, orderdomain.StatusPartiallyFilled)
	unlock := f.locks.Lock(o.OrderID)
	fresh := f.mustGet(t, o.OrderID)
	if err := fresh.RequestCancel(ctx); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	if err := f.store.Save(ctx, fresh); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	unlock()
	<-done

	f.engine.processCancel(ctx, o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusCanceled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusCanceled, got.Status)
	}
	if !got.CumQty.Equal(dec("4")) {
		t.Fatalf("cum_qty mismatch! should be %v but got %v", "4", got.CumQty)
	}
	execs, _ := f.store.ListByOrder(ctx, o.OrderID)
	if len(execs) != 1 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 1, len(execs))
	}
}

func TestEngineCancelUnknownOrder(t *testing.T) {
	f := newEngineFixture(domain.Config{})

	f.engine.processCancel(context.Background(), "ORD-missing")

	orders, err := f.store.List(context.Background(), orderdomain.OrderFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("order count mismatch! should be %v but got %v", 0, len(orders))
	}
}

func TestEngineCancelTerminalNoOp(t *testing.T) {
	f := newEngineFixture(domain.Config{})
	o := f.seedLimitBuy(t, "10", "2000")
	ctx := context.Background()

	f.engine.processSend(ctx, o.OrderID)
	f.waitStatus(t, o.OrderID, orderdomain.StatusFilled)

	sink := f.collect("c1")
	f.engine.processCancel(ctx, o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusFilled {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusFilled, got.Status)
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("event count mismatch! should be %v but got %v", 0, len(sink.snapshot()))
	}
	execs, _ := f.store.ListByOrder(ctx, o.OrderID)
	if len(execs) != 1 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 1, len(execs))
	}
}

func TestEngineSendTerminalDiscarded(t *testing.T) {
	f := newEngineFixture(domain.Config{})
	ctx := context.Background()
	o := orderdomain.NewOrder("c1", "XAUUSD", orderdomain.SideBuy, orderdomain.TypeLimit, dec("10"), nullDec("2000"), orderdomain.TIFGtc)
	if err := o.MarkRejected(ctx, "SYMBOL_BLOCKED"); err != nil {
		t.Fatalf("mark rejected failed: %v", err)
	}
	if err := f.store.Create(ctx, o); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	sink := f.collect("c1")

	f.engine.processSend(ctx, o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusRejected {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusRejected, got.Status)
	}
	if got.RejectReason != "SYMBOL_BLOCKED" {
		t.Fatalf("reject reason mismatch! should be %v but got %v", "SYMBOL_BLOCKED", got.RejectReason)
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("event count mismatch! should be %v but got %v", 0, len(sink.snapshot()))
	}
}

func TestEngineSendNothingToFill(t *testing.T) {
	f := newEngineFixture(domain.Config{})
	ctx := context.Background()
	o := orderdomain.NewOrder("c1", "XAUUSD", orderdomain.SideBuy, orderdomain.TypeLimit, dec("10"), nullDec("2000"), orderdomain.TIFGtc)
	o.CumQty = o.Quantity
	if err := f.store.Create(ctx, o); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}

	f.engine.processSend(ctx, o.OrderID)

	got := f.mustGet(t, o.OrderID)
	if got.Status != orderdomain.StatusSent {
		t.Fatalf("status mismatch! should be %v but got %v", orderdomain.StatusSent, got.Status)
	}
	execs, _ := f.store.ListByOrder(ctx, o.OrderID)
	if len(execs) != 0 {
		t.Fatalf("execution count mismatch! should be %v but got %v", 0, len(execs))
	}
}

func TestEngineQueueFullAndClosed(t *testing.T) {
	f := newEngineFixture(domain.Config{QueueCapacity: 1})

	if err := f.engine.EnqueueSend("ORD-1"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	err := f.engine.EnqueueCancel("ORD-2")
	if !errors.Is(err, orderdomain.ErrQueueFull) {
		t.Fatalf("error mismatch! should be %v but got %v", orderdomain.ErrQueueFull, err)
	}

	f.engine.Stop()
	err = f.engine.EnqueueSend("ORD-3")
	if !errors.Is(err, domain.ErrEngineClosed) {
		t.Fatalf("error mismatch! should be %v but got %v", domain.ErrEngineClosed, err)
	}
}

func TestEngineQueuedLifecycle(t *testing.T) {
	f := newEngineFixture(domain.Config{QueueCapacity: 16})
	o := f.seedLimitBuy(t, "10", "2000")

	f.engine.Start()
	defer f.engine.Stop()

	if err := f.engine.EnqueueSend(o.OrderID); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	f.waitStatus(t, o.OrderID, orderdomain.StatusFilled)
	got := f.mustGet(t, o.OrderID)
	if !got.CumQty.Equal(got.Quantity) {
		t.Fatalf("cum_qty mismatch! should be %v but got %v", got.Quantity, got.CumQty)
	}
}

func TestEngineTwoClientsTopicIsolation(t *testing.T) {
	f := newEngineFixture(domain.Config{QueueCapacity: 16})
	o1 := f.seedLimitBuy(t, "5", "2000")
	o2 := orderdomain.NewOrder("c2", "EURUSD", orderdomain.SideSell, orderdomain.TypeLimit, dec("3"), nullDec("1.1"), orderdomain.TIFGtc)
	if err := f.store.Create(context.Background(), o2); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	sink1 := f.collect("c1")
	sink2 := f.collect("c2")

	f.engine.Start()
	defer f.engine.Stop()
	if err := f.engine.EnqueueSend(o1.OrderID); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := f.engine.EnqueueSend(o2.OrderID); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	f.waitStatus(t, o1.OrderID, orderdomain.StatusFilled)
	f.waitStatus(t, o2.OrderID, orderdomain.StatusFilled)

	checks := []struct {
		sink   *eventSink
		client string
	}{
		{sink1, "c1"},
		{sink2, "c2"},
	}
	for _, c := range checks {
		events := c.sink.snapshot()
		if len(events) == 0 {
			t.Fatalf("event count mismatch! should be %v but got %v", "non-empty", len(events))
		}
		for _, e := range events {
			snap, ok := e.Payload.(orderdomain.OrderSnapshot)
			if !ok {
				t.Fatalf("payload type mismatch! should be %T but got %T", orderdomain.OrderSnapshot{}, e.Payload)
			}
			if snap.ClientID != c.client {
				t.Fatalf("clientId mismatch! should be %v but got %v", c.client, snap.ClientID)
			}
		}
	}
}
