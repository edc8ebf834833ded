package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderFilter 订单查询条件
type OrderFilter struct {
	ClientID string
	Symbol   string
	Status   OrderStatus
	Limit    int
	Offset   int
}

// Position 按 (client, symbol) 聚合出的净持仓视图，
// 由成交记录推导：BUY 计正、SELL 计负。
type Position struct {
	ClientID      string          `json:"client_id"`
	Symbol        string          `json:"symbol"`
	NetQty        decimal.Decimal `json:"net_qty"`
	AvgPx         decimal.Decimal `json:"avg_px"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

// OrderRepository 订单仓储接口。Get 未命中返回 (nil, nil)。
type OrderRepository interface {
	// 新建订单
	Create(ctx context.Context, order *Order) error
	// 按业务订单号获取
	Get(ctx context.Context, orderID string) (*Order, error)
	// 条件查询
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)
	// 保存订单全量状态（upsert）
	Save(ctx context.Context, order *Order) error
}

// ExecutionRepository 成交仓储接口，只追加
type ExecutionRepository interface {
	// 追加一笔成交
	Append(ctx context.Context, execution *Execution) error
	// 按订单列出成交
	ListByOrder(ctx context.Context, orderID string) ([]*Execution, error)
	// 列出全部成交（对账用）
	ListAll(ctx context.Context) ([]*Execution, error)
}

// PositionQuery 持仓聚合查询，存储层各自实现独立的聚合路径，
// 与对账引擎内部的推导互为交叉校验。
type PositionQuery interface {
	ByClient(ctx context.Context, clientID string) ([]*Position, error)
}
