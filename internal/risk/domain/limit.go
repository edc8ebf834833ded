// Package domain 交易前风控的领域模型：限额实体与纯函数校验管线。
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLimit 风控限额，按 (client, symbol) 维度配置。
// Symbol 为空串表示该客户的全局默认限额；
// MaxNotional / MaxOrderSize 非正值表示不设上限。
type RiskLimit struct {
	ID           uint            `json:"id"`
	ClientID     string          `json:"client_id"`
	Symbol       string          `json:"symbol"`
	MaxNotional  decimal.Decimal `json:"max_notional"`
	MaxOrderSize decimal.Decimal `json:"max_order_size"`
	TradingHours string          `json:"trading_hours"`
	Blocked      bool            `json:"blocked"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Clone 返回副本
func (l *RiskLimit) Clone() *RiskLimit {
	c := *l
	return &c
}

// PermissiveDefault 没有任何限额记录时使用的合成默认值：
// 不设额度上限、全天可交易、不封禁。配置缺失永远不会静默阻断交易。
func PermissiveDefault(clientID, symbol string) *RiskLimit {
	return &RiskLimit{
		ClientID:     clientID,
		Symbol:       symbol,
		MaxNotional:  decimal.Zero,
		MaxOrderSize: decimal.Zero,
		TradingHours: "00:00-24:00",
		Blocked:      false,
	}
}

// RiskLimitRepository 限额仓储。
// FindByClientAndSymbol 先找 (client, symbol) 精确记录，
// 没有时回退到客户级默认（symbol 为空串），都未命中返回 (nil, nil)。
type RiskLimitRepository interface {
	Upsert(ctx context.Context, limit *RiskLimit) error
	FindByClientAndSymbol(ctx context.Context, clientID, symbol string) (*RiskLimit, error)
	List(ctx context.Context, clientID string) ([]*RiskLimit, error)
}

// ReferencePriceSource 市场参考价来源，MARKET 单的名义价值靠它估算。
// 未知符号返回无效的 NullDecimal 而不是错误。
type ReferencePriceSource interface {
	ReferencePrice(ctx context.Context, symbol string) (decimal.NullDecimal, error)
}
