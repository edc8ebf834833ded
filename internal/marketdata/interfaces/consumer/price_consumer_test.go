package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/application"
	"github.com/wyfcoding/ordermanagement/internal/marketdata/infrastructure/persistence/memory"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
)

func newTestConsumer() (*PriceConsumer, *application.MarketDataService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewMarketDataService(memory.NewStore(), logger)
	return NewPriceConsumer(nil, nil, svc, logger), svc
}

func TestHandlePriceMessage(t *testing.T) {
	c, svc := newTestConsumer()
	ctx := context.Background()

	msg := &mq.Message{Value: []byte(`{"symbol":"eurusd","price":"1.2345"}`)}
	if err := c.handle(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := svc.ReferencePrice(ctx, "EURUSD")
	if err != nil || !got.Valid {
		t.Fatalf("price should be stored, got valid=%v err=%v", got.Valid, err)
	}
	if !got.Decimal.Equal(decimal.RequireFromString("1.2345")) {
		t.Fatalf("price mismatch! should be %v but got %v", "1.2345", got.Decimal)
	}
}

func TestHandlePriceMessageNumericPayload(t *testing.T) {
	c, svc := newTestConsumer()
	ctx := context.Background()

	// price 作为 JSON 数字同样可以解析
	msg := &mq.Message{Value: []byte(`{"symbol":"XAUUSD","price":2000.5}`)}
	if err := c.handle(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, _ := svc.ReferencePrice(ctx, "XAUUSD")
	if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("2000.5")) {
		t.Fatalf("price mismatch! should be %v but got %v", "2000.5", got.Decimal)
	}
}

func TestHandleRejectsBadMessages(t *testing.T) {
	c, svc := newTestConsumer()
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "broken json", payload: `{"symbol":`},
		{name: "missing symbol", payload: `{"price":"1.1"}`},
		{name: "non positive price", payload: `{"symbol":"EURUSD","price":"0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &mq.Message{Value: []byte(tt.payload)}
			if err := c.handle(ctx, msg); err == nil {
				t.Fatalf("bad payload should be rejected")
			}
		})
	}

	got, err := svc.ReferencePrice(ctx, "EURUSD")
	if err != nil {
		t.Fatalf("reference price: %v", err)
	}
	if got.Valid {
		t.Fatalf("valid mismatch! should be %v but got %v", false, got.Valid)
	}
}
