// 生成摘要：充值订单聚合根，包含状态机流程。
// 假设：充值先经支付网关确认到账，再由入账事务写入账户。
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
)

// DepositStatus 充值订单状态
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "PENDING"   // 等待支付
	DepositStatusConfirmed DepositStatus = "CONFIRMED" // 网关已确认
	DepositStatusCompleted DepositStatus = "COMPLETED" // 账户已入账
	DepositStatusFailed    DepositStatus = "FAILED"    // 失败
	DepositStatusCanceled  DepositStatus = "CANCELED"  // 已取消
)

// DepositOrder 充值订单聚合根
type DepositOrder struct {
	ID              uint                `json:"id"`
	DepositID       string              `json:"deposit_id"`
	ClientID        string              `json:"client_id"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	Channel         string              `json:"channel"`
	Status          DepositStatus       `json:"status"`
	ProviderRef     string              `json:"provider_ref"`
	PaymentURL      string              `json:"payment_url"`
	ConfirmedAmount decimal.NullDecimal `json:"confirmed_amount"`
	FailReason      string              `json:"fail_reason"`
	ConfirmedAt     *time.Time          `json:"confirmed_at"`
	CompletedAt     *time.Time          `json:"completed_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	fsm *fsm.Machine[string, string]
}

// NewDepositOrder 创建 PENDING 状态的充值订单
func NewDepositOrder(clientID string, amount decimal.Decimal, currency, channel string) *DepositOrder {
	d := &DepositOrder{
		DepositID: fmt.Sprintf("DEP%d", idgen.GenID()),
		ClientID:  clientID,
		Amount:    amount,
		Currency:  currency,
		Channel:   channel,
		Status:    DepositStatusPending,
	}
	d.initFSM()
	return d
}

func (d *DepositOrder) initFSM() {
	m := fsm.NewMachine[string, string](string(d.Status))
	m.AddTransition(string(DepositStatusPending), "CONFIRM", string(DepositStatusConfirmed))
	m.AddTransition(string(DepositStatusConfirmed), "COMPLETE", string(DepositStatusCompleted))
	m.AddTransition(string(DepositStatusPending), "FAIL", string(DepositStatusFailed))
	m.AddTransition(string(DepositStatusConfirmed), "FAIL", string(DepositStatusFailed))
	m.AddTransition(string(DepositStatusPending), "CANCEL", string(DepositStatusCanceled))
	d.fsm = m
}

// InitFSM 确保状态机已初始化（仓储层重建聚合后调用）
func (d *DepositOrder) InitFSM() {
	if d.fsm == nil {
		d.initFSM()
	}
}

// Clone 复制订单并脱离状态机实例
func (d *DepositOrder) Clone() *DepositOrder {
	c := *d
	c.fsm = nil
	return &c
}

// Confirm 网关确认到账。confirmedAmount 为网关结算金额，无效时视同下单金额。
func (d *DepositOrder) Confirm(ctx context.Context, providerRef string, confirmedAmount decimal.NullDecimal) error {
	d.InitFSM()
	if err := d.fsm.Trigger(ctx, "CONFIRM"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	d.Status = DepositStatusConfirmed
	if providerRef != "" {
		d.ProviderRef = providerRef
	}
	d.ConfirmedAmount = confirmedAmount
	now := time.Now()
	d.ConfirmedAt = &now
	return nil
}

// Complete 账户入账完成
func (d *DepositOrder) Complete(ctx context.Context) error {
	d.InitFSM()
	if err := d.fsm.Trigger(ctx, "COMPLETE"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	d.Status = DepositStatusCompleted
	now := time.Now()
	d.CompletedAt = &now
	return nil
}

// Fail 充值失败，确认前后均可触发
func (d *DepositOrder) Fail(ctx context.Context, reason string) error {
	d.InitFSM()
	if err := d.fsm.Trigger(ctx, "FAIL"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	d.Status = DepositStatusFailed
	d.FailReason = reason
	return nil
}

// Cancel 取消充值，仅允许未确认的订单
func (d *DepositOrder) Cancel(ctx context.Context) error {
	d.InitFSM()
	if err := d.fsm.Trigger(ctx, "CANCEL"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	d.Status = DepositStatusCanceled
	return nil
}

// CreditAmount 入账金额：网关结算金额优先，缺省回落到下单金额
func (d *DepositOrder) CreditAmount() decimal.Decimal {
	if d.ConfirmedAmount.Valid {
		return d.ConfirmedAmount.Decimal
	}
	return d.Amount
}

// IsTerminal 是否处于终态
func (d *DepositOrder) IsTerminal() bool {
	return d.Status == DepositStatusCompleted || d.Status == DepositStatusFailed || d.Status == DepositStatusCanceled
}
