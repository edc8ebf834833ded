// Package domain 账户上下文的领域模型：资金账户、充值/提现订单与支付网关端口。
// 余额不变式 balance = available + frozen 由聚合方法维护，仓储只做持久化。
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount 金额必须为正数
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientAvailable 可用余额不足
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	// ErrInsufficientFrozen 冻结余额不足
	ErrInsufficientFrozen = errors.New("insufficient frozen balance")
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("operation not allowed in current status")
)

// Account 资金账户，按 (客户, 货币) 唯一。
type Account struct {
	ID        uint            `json:"id"`
	ClientID  string          `json:"client_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
	Frozen    decimal.Decimal `json:"frozen"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount 创建零余额账户
func NewAccount(clientID, currency string) *Account {
	return &Account{
		ClientID:  clientID,
		Currency:  currency,
		Balance:   decimal.Zero,
		Available: decimal.Zero,
		Frozen:    decimal.Zero,
	}
}

// Credit 入账：同时增加总余额与可用余额
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	a.Balance = a.Balance.Add(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// Freeze 从可用余额划转到冻结余额，总余额不变
func (a *Account) Freeze(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if a.Available.LessThan(amount) {
		return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientAvailable, a.Available, amount)
	}
	a.Available = a.Available.Sub(amount)
	a.Frozen = a.Frozen.Add(amount)
	return nil
}

// Unfreeze 冻结余额划回可用余额
func (a *Account) Unfreeze(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if a.Frozen.LessThan(amount) {
		return fmt.Errorf("%w: frozen %s, requested %s", ErrInsufficientFrozen, a.Frozen, amount)
	}
	a.Frozen = a.Frozen.Sub(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// DebitFrozen 从冻结余额扣减出账，总余额同步减少
func (a *Account) DebitFrozen(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if a.Frozen.LessThan(amount) {
		return fmt.Errorf("%w: frozen %s, requested %s", ErrInsufficientFrozen, a.Frozen, amount)
	}
	a.Frozen = a.Frozen.Sub(amount)
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Clone 复制账户，供内存存储保存/读取时使用
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
