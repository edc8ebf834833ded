// Package domain 行情上下文的领域模型：参考价表及其存取接口。
// 参考价只服务于 MARKET 订单的名义金额风控，不是行情快照，
// 不承诺与任何真实市场对齐。
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReferencePrice 单个符号的参考价
type ReferencePrice struct {
	Symbol    string
	Price     decimal.Decimal
	UpdatedAt time.Time
}

// PriceRepository 参考价存取接口。Get 未知符号返回 (nil, nil)。
type PriceRepository interface {
	// 获取参考价
	Get(ctx context.Context, symbol string) (*ReferencePrice, error)
	// 写入或覆盖参考价
	Set(ctx context.Context, price *ReferencePrice) error
	// 列出全部参考价
	List(ctx context.Context) ([]*ReferencePrice, error)
}
