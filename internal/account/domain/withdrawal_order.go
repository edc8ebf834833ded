// 生成摘要：提现订单聚合根，包含状态机流程。
// 假设：提现创建即冻结可用余额，人工复核后打款扣减冻结。
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
)

// WithdrawalStatus 提现订单状态
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "PENDING"   // 用户提交
	WithdrawalStatusReviewing WithdrawalStatus = "REVIEWING" // 复核中
	WithdrawalStatusCompleted WithdrawalStatus = "COMPLETED" // 已打款
	WithdrawalStatusRejected  WithdrawalStatus = "REJECTED"  // 已拒绝
	WithdrawalStatusCanceled  WithdrawalStatus = "CANCELED"  // 已取消
)

// WithdrawalOrder 提现订单聚合根
type WithdrawalOrder struct {
	ID            uint             `json:"id"`
	WithdrawalID  string           `json:"withdrawal_id"`
	ClientID      string           `json:"client_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	BankName      string           `json:"bank_name"`
	BankAccount   string           `json:"bank_account"`
	AccountHolder string           `json:"account_holder"`
	Status        WithdrawalStatus `json:"status"`
	ProviderRef   string           `json:"provider_ref"`
	ReviewedBy    string           `json:"reviewed_by"`
	RejectReason  string           `json:"reject_reason"`
	ReviewedAt    *time.Time       `json:"reviewed_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	fsm *fsm.Machine[string, string]
}

// NewWithdrawalOrder 创建 PENDING 状态的提现订单
func NewWithdrawalOrder(clientID string, amount decimal.Decimal, currency, bankName, bankAccount, accountHolder string) *WithdrawalOrder {
	w := &WithdrawalOrder{
		WithdrawalID:  fmt.Sprintf("WDR%d", idgen.GenID()),
		ClientID:      clientID,
		Amount:        amount,
		Currency:      currency,
		BankName:      bankName,
		BankAccount:   bankAccount,
		AccountHolder: accountHolder,
		Status:        WithdrawalStatusPending,
	}
	w.initFSM()
	return w
}

func (w *WithdrawalOrder) initFSM() {
	m := fsm.NewMachine[string, string](string(w.Status))
	m.AddTransition(string(WithdrawalStatusPending), "REVIEW", string(WithdrawalStatusReviewing))
	m.AddTransition(string(WithdrawalStatusReviewing), "COMPLETE", string(WithdrawalStatusCompleted))
	m.AddTransition(string(WithdrawalStatusReviewing), "REJECT", string(WithdrawalStatusRejected))
	m.AddTransition(string(WithdrawalStatusPending), "CANCEL", string(WithdrawalStatusCanceled))
	m.AddTransition(string(WithdrawalStatusReviewing), "CANCEL", string(WithdrawalStatusCanceled))
	w.fsm = m
}

// InitFSM 确保状态机已初始化（仓储层重建聚合后调用）
func (w *WithdrawalOrder) InitFSM() {
	if w.fsm == nil {
		w.initFSM()
	}
}

// Clone 复制订单并脱离状态机实例
func (w *WithdrawalOrder) Clone() *WithdrawalOrder {
	c := *w
	c.fsm = nil
	return &c
}

// StartReview 进入复核状态
func (w *WithdrawalOrder) StartReview(ctx context.Context) error {
	w.InitFSM()
	if err := w.fsm.Trigger(ctx, "REVIEW"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	w.Status = WithdrawalStatusReviewing
	return nil
}

// Complete 复核通过并打款完成
func (w *WithdrawalOrder) Complete(ctx context.Context, reviewer, providerRef string) error {
	w.InitFSM()
	if err := w.fsm.Trigger(ctx, "COMPLETE"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	w.Status = WithdrawalStatusCompleted
	w.ProviderRef = providerRef
	now := time.Now()
	if reviewer != "" {
		w.ReviewedBy = reviewer
		w.ReviewedAt = &now
	}
	w.CompletedAt = &now
	return nil
}

// Reject 复核拒绝
func (w *WithdrawalOrder) Reject(ctx context.Context, reviewer, reason string) error {
	w.InitFSM()
	if err := w.fsm.Trigger(ctx, "REJECT"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	w.Status = WithdrawalStatusRejected
	w.ReviewedBy = reviewer
	w.RejectReason = reason
	now := time.Now()
	w.ReviewedAt = &now
	return nil
}

// Cancel 客户撤回提现申请，打款前均可触发
func (w *WithdrawalOrder) Cancel(ctx context.Context) error {
	w.InitFSM()
	if err := w.fsm.Trigger(ctx, "CANCEL"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	w.Status = WithdrawalStatusCanceled
	return nil
}

// IsTerminal 是否处于终态
func (w *WithdrawalOrder) IsTerminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusRejected || w.Status == WithdrawalStatusCanceled
}

// HoldsFunds 订单当前是否占用冻结资金
func (w *WithdrawalOrder) HoldsFunds() bool {
	return w.Status == WithdrawalStatusPending || w.Status == WithdrawalStatusReviewing
}
