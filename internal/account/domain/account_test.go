package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return d
}

func TestAccountBalanceInvariant(t *testing.T) {
	a := NewAccount("c1", "USD")

	if err := a.Credit(dec(t, "100")); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := a.Freeze(dec(t, "30")); err != nil {
		t.Fatalf("freeze failed: %v", err)
	}
	if err := a.Unfreeze(dec(t, "10")); err != nil {
		t.Fatalf("unfreeze failed: %v", err)
	}
	if err := a.DebitFrozen(dec(t, "20")); err != nil {
		t.Fatalf("debit frozen failed: %v", err)
	}

	if !a.Balance.Equal(dec(t, "80")) {
		t.Fatalf("balance mismatch! should be %v but got %v", "80", a.Balance)
	}
	if !a.Available.Equal(dec(t, "80")) {
		t.Fatalf("available mismatch! should be %v but got %v", "80", a.Available)
	}
	if !a.Frozen.Equal(decimal.Zero) {
		t.Fatalf("frozen mismatch! should be %v but got %v", "0", a.Frozen)
	}
	if !a.Balance.Equal(a.Available.Add(a.Frozen)) {
		t.Fatalf("invariant broken: balance %v != available %v + frozen %v", a.Balance, a.Available, a.Frozen)
	}
}

func TestAccountGuards(t *testing.T) {
	tests := []struct {
		name    string
		op      func(a *Account) error
		wantErr error
	}{
		{
			name:    "credit zero",
			op:      func(a *Account) error { return a.Credit(decimal.Zero) },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "credit negative",
			op:      func(a *Account) error { return a.Credit(decimal.NewFromInt(-5)) },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "freeze beyond available",
			op:      func(a *Account) error { return a.Freeze(decimal.NewFromInt(101)) },
			wantErr: ErrInsufficientAvailable,
		},
		{
			name:    "unfreeze beyond frozen",
			op:      func(a *Account) error { return a.Unfreeze(decimal.NewFromInt(1)) },
			wantErr: ErrInsufficientFrozen,
		},
		{
			name:    "debit beyond frozen",
			op:      func(a *Account) error { return a.DebitFrozen(decimal.NewFromInt(1)) },
			wantErr: ErrInsufficientFrozen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccount("c1", "USD")
			if err := a.Credit(decimal.NewFromInt(100)); err != nil {
				t.Fatalf("seed credit failed: %v", err)
			}
			err := tt.op(a)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error mismatch! should be %v but got %v", tt.wantErr, err)
			}
			if !a.Balance.Equal(decimal.NewFromInt(100)) || !a.Available.Equal(decimal.NewFromInt(100)) {
				t.Fatalf("failed op must not change balances, got balance %v available %v", a.Balance, a.Available)
			}
		})
	}
}

func TestDepositOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	d := NewDepositOrder("c1", dec(t, "250.50"), "USD", "card")

	if !strings.HasPrefix(d.DepositID, "DEP") {
		t.Fatalf("deposit id should carry DEP prefix, got %s", d.DepositID)
	}
	if d.Status != DepositStatusPending {
		t.Fatalf("status mismatch! should be %v but got %v", DepositStatusPending, d.Status)
	}

	confirmed := decimal.NullDecimal{Decimal: dec(t, "250.00"), Valid: true}
	if err := d.Confirm(ctx, "psp_ref_1", confirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if d.Status != DepositStatusConfirmed || d.ConfirmedAt == nil {
		t.Fatalf("confirm should move to CONFIRMED with timestamp, got %v %v", d.Status, d.ConfirmedAt)
	}
	if !d.CreditAmount().Equal(dec(t, "250.00")) {
		t.Fatalf("credit amount mismatch! should be %v but got %v", "250.00", d.CreditAmount())
	}

	if err := d.Complete(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if d.Status != DepositStatusCompleted || d.CompletedAt == nil || !d.IsTerminal() {
		t.Fatalf("complete should reach terminal COMPLETED, got %v", d.Status)
	}
}

func TestDepositOrderCreditAmountFallback(t *testing.T) {
	d := NewDepositOrder("c1", dec(t, "99.9"), "USD", "card")
	if !d.CreditAmount().Equal(dec(t, "99.9")) {
		t.Fatalf("credit amount mismatch! should be %v but got %v", "99.9", d.CreditAmount())
	}
}

func TestDepositOrderInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("complete before confirm", func(t *testing.T) {
		d := NewDepositOrder("c1", dec(t, "10"), "USD", "card")
		err := d.Complete(ctx)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("error mismatch! should be %v but got %v", ErrInvalidTransition, err)
		}
		if d.Status != DepositStatusPending {
			t.Fatalf("failed transition must not change status, got %v", d.Status)
		}
	})

	t.Run("cancel after confirm", func(t *testing.T) {
		d := NewDepositOrder("c1", dec(t, "10"), "USD", "card")
		if err := d.Confirm(ctx, "ref", decimal.NullDecimal{}); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		if err := d.Cancel(ctx); err == nil {
			t.Fatal("cancel from CONFIRMED should fail")
		}
	})

	t.Run("fail after confirm is allowed", func(t *testing.T) {
		d := NewDepositOrder("c1", dec(t, "10"), "USD", "card")
		if err := d.Confirm(ctx, "ref", decimal.NullDecimal{}); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		if err := d.Fail(ctx, "settlement bounced"); err != nil {
			t.Fatalf("fail from CONFIRMED should succeed: %v", err)
		}
		if d.Status != DepositStatusFailed || d.FailReason != "settlement bounced" {
			t.Fatalf("fail should record reason, got %v %q", d.Status, d.FailReason)
		}
	})

	t.Run("rehydrated clone keeps guarding", func(t *testing.T) {
		d := NewDepositOrder("c1", dec(t, "10"), "USD", "card")
		c := d.Clone()
		if err := c.Complete(ctx); err == nil {
			t.Fatal("clone should rebuild fsm and reject COMPLETE from PENDING")
		}
	})
}

func TestWithdrawalOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	w := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "BBVA", "012345678901234567", "Ada L")

	if !strings.HasPrefix(w.WithdrawalID, "WDR") {
		t.Fatalf("withdrawal id should carry WDR prefix, got %s", w.WithdrawalID)
	}
	if !w.HoldsFunds() {
		t.Fatal("pending withdrawal should hold funds")
	}

	if err := w.StartReview(ctx); err != nil {
		t.Fatalf("start review failed: %v", err)
	}
	if w.Status != WithdrawalStatusReviewing || !w.HoldsFunds() {
		t.Fatalf("review should keep funds held, got %v", w.Status)
	}

	if err := w.Complete(ctx, "ops-1", "TRF-9"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if w.Status != WithdrawalStatusCompleted || w.ReviewedBy != "ops-1" || w.ProviderRef != "TRF-9" {
		t.Fatalf("complete should record reviewer and transfer ref, got %v %q %q", w.Status, w.ReviewedBy, w.ProviderRef)
	}
	if w.HoldsFunds() || !w.IsTerminal() {
		t.Fatal("completed withdrawal should be terminal and release the hold tracking")
	}
}

func TestWithdrawalOrderRejectAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("reject from reviewing", func(t *testing.T) {
		w := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "", "", "")
		if err := w.StartReview(ctx); err != nil {
			t.Fatalf("start review failed: %v", err)
		}
		if err := w.Reject(ctx, "ops-2", "name mismatch"); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if w.Status != WithdrawalStatusRejected || w.RejectReason != "name mismatch" || w.ReviewedAt == nil {
			t.Fatalf("reject should record reviewer decision, got %v %q", w.Status, w.RejectReason)
		}
	})

	t.Run("reject before review should fail", func(t *testing.T) {
		w := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "", "", "")
		if err := w.Reject(ctx, "ops-2", "x"); err == nil {
			t.Fatal("reject from PENDING should fail")
		}
	})

	t.Run("cancel from pending and reviewing", func(t *testing.T) {
		w := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "", "", "")
		if err := w.Cancel(ctx); err != nil {
			t.Fatalf("cancel from PENDING failed: %v", err)
		}

		w2 := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "", "", "")
		if err := w2.StartReview(ctx); err != nil {
			t.Fatalf("start review failed: %v", err)
		}
		if err := w2.Cancel(ctx); err != nil {
			t.Fatalf("cancel from REVIEWING failed: %v", err)
		}
	})

	t.Run("cancel after completion should fail", func(t *testing.T) {
		w := NewWithdrawalOrder("c1", dec(t, "40"), "USD", "", "", "")
		if err := w.StartReview(ctx); err != nil {
			t.Fatalf("start review failed: %v", err)
		}
		if err := w.Complete(ctx, "ops", "TRF-1"); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if err := w.Cancel(ctx); err == nil {
			t.Fatal("cancel from COMPLETED should fail")
		}
	})
}
