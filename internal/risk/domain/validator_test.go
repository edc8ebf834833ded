package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

func limitOrder(qty, price string) CheckRequest {
	return CheckRequest{ClientID: "c1", Symbol: "XAUUSD", Type: "LIMIT", Qty: dec(qty), Price: nullDec(price)}
}

func marketOrder(qty string) CheckRequest {
	return CheckRequest{ClientID: "c1", Symbol: "XAUUSD", Type: "MARKET", Qty: dec(qty)}
}

func baseLimit() *RiskLimit {
	return &RiskLimit{
		ClientID:     "c1",
		Symbol:       "XAUUSD",
		MaxNotional:  dec("100000"),
		MaxOrderSize: dec("100"),
		TradingHours: "09:00-16:00",
	}
}

// 固定在交易时段内的基准时刻 10:30
var atTenThirty = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	testCases := []struct {
		desc       string
		req        CheckRequest
		limit      *RiskLimit
		ref        decimal.NullDecimal
		now        time.Time
		wantOK     bool
		wantReason string
	}{
		{
			desc:   "limit order within all limits",
			req:    limitOrder("10", "2000"),
			limit:  baseLimit(),
			now:    atTenThirty,
			wantOK: true,
		},
		{
			desc:   "market order priced by reference",
			req:    marketOrder("10"),
			limit:  baseLimit(),
			ref:    nullDec("2000"),
			now:    atTenThirty,
			wantOK: true,
		},
		{
			desc:       "zero qty",
			req:        limitOrder("0", "2000"),
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonInvalidQty,
		},
		{
			desc:       "negative qty",
			req:        limitOrder("-1", "2000"),
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonInvalidQty,
		},
		{
			desc: "limit order without price",
			req: CheckRequest{
				ClientID: "c1", Symbol: "XAUUSD", Type: "LIMIT", Qty: dec("10"),
			},
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonPriceRequired,
		},
		{
			desc: "market order with price",
			req: CheckRequest{
				ClientID: "c1", Symbol: "XAUUSD", Type: "MARKET", Qty: dec("10"), Price: nullDec("2000"),
			},
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonPriceNotAllowed,
		},
		{
			desc: "blocked symbol",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", Symbol: "XAUUSD", Blocked: true,
				MaxNotional: dec("100000"), MaxOrderSize: dec("100"), TradingHours: "09:00-16:00",
			},
			now:        atTenThirty,
			wantReason: ReasonSymbolBlocked,
		},
		{
			desc:       "invalid qty beats blocked flag",
			req:        limitOrder("0", "2000"),
			limit:      &RiskLimit{ClientID: "c1", Blocked: true, TradingHours: "09:00-16:00"},
			now:        atTenThirty,
			wantReason: ReasonInvalidQty,
		},
		{
			desc:       "outside trading hours",
			req:        limitOrder("10", "2000"),
			limit:      baseLimit(),
			now:        time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
			wantReason: ReasonOutsideHours,
		},
		{
			desc:   "window start is inclusive",
			req:    limitOrder("10", "2000"),
			limit:  baseLimit(),
			now:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			desc:   "window end is inclusive",
			req:    limitOrder("10", "2000"),
			limit:  baseLimit(),
			now:    time.Date(2026, 3, 2, 16, 0, 59, 0, time.UTC),
			wantOK: true,
		},
		{
			desc: "malformed window fails closed",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
				TradingHours: "whenever",
			},
			now:        atTenThirty,
			wantReason: ReasonOutsideHours,
		},
		{
			desc: "out of range clock fails closed",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
				TradingHours: "25:00-26:00",
			},
			now:        atTenThirty,
			wantReason: ReasonOutsideHours,
		},
		{
			desc: "inverted window never matches",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
				TradingHours: "16:00-09:00",
			},
			now:        atTenThirty,
			wantReason: ReasonOutsideHours,
		},
		{
			desc: "24:00 end keeps the whole day open",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
				TradingHours: "00:00-24:00",
			},
			now:    time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			desc: "empty window means unrestricted",
			req:  limitOrder("10", "2000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
			},
			now:    time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			desc:       "market order without reference price",
			req:        marketOrder("10"),
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonMissingRefPrice,
		},
		{
			desc:       "zero reference price counts as missing",
			req:        marketOrder("10"),
			limit:      baseLimit(),
			ref:        nullDec("0"),
			now:        atTenThirty,
			wantReason: ReasonMissingRefPrice,
		},
		{
			desc:       "notional above limit",
			req:        limitOrder("60", "2000"),
			limit:      baseLimit(),
			now:        atTenThirty,
			wantReason: ReasonNotionalExceeded,
		},
		{
			desc:   "notional exactly at limit passes",
			req:    limitOrder("50", "2000"),
			limit:  baseLimit(),
			now:    atTenThirty,
			wantOK: true,
		},
		{
			desc:       "market notional uses reference price",
			req:        marketOrder("60"),
			limit:      baseLimit(),
			ref:        nullDec("2000"),
			now:        atTenThirty,
			wantReason: ReasonNotionalExceeded,
		},
		{
			desc: "zero max notional means unlimited",
			req:  limitOrder("500", "100000"),
			limit: &RiskLimit{
				ClientID: "c1", MaxOrderSize: dec("1000"), TradingHours: "09:00-16:00",
			},
			now:    atTenThirty,
			wantOK: true,
		},
		{
			desc: "qty above max order size",
			req:  limitOrder("150", "10"),
			limit: &RiskLimit{
				ClientID: "c1", MaxNotional: dec("100000"), MaxOrderSize: dec("100"),
				TradingHours: "09:00-16:00",
			},
			now:        atTenThirty,
			wantReason: ReasonOrderSizeExceeded,
		},
		{
			desc:   "qty exactly at max order size passes",
			req:    limitOrder("100", "10"),
			limit:  baseLimit(),
			now:    atTenThirty,
			wantOK: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ok, reason := Validate(tc.req, tc.limit, tc.ref, tc.now)
			if ok != tc.wantOK {
				t.Fatalf("ok mismatch! should be %v but got %v (reason %q)", tc.wantOK, ok, reason)
			}
			if reason != tc.wantReason {
				t.Fatalf("reason mismatch! should be %q but got %q", tc.wantReason, reason)
			}
		})
	}
}

func TestPermissiveDefault(t *testing.T) {
	limit := PermissiveDefault("c9", "EURUSD")

	ok, reason := Validate(limitOrder("1000000", "99999"), limit, decimal.NullDecimal{}, time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatalf("ok mismatch! should be %v but got %v (reason %q)", true, ok, reason)
	}
	if limit.Blocked {
		t.Fatalf("blocked mismatch! should be %v but got %v", false, limit.Blocked)
	}
}
