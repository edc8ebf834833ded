// Package domain 订单上下文的领域模型：订单聚合根、成交记录与仓储接口。
// 订单的状态流转由状态机约束，创建后仅执行引擎的单一 worker 可以推进状态。
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"              // 已受理，等待发送
	StatusPendingSend     OrderStatus = "PENDING_SEND"     // 发送中
	StatusSent            OrderStatus = "SENT"             // 已送达模拟交易所
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED" // 部分成交
	StatusFilled          OrderStatus = "FILLED"           // 完全成交
	StatusCanceled        OrderStatus = "CANCELED"         // 已取消
	StatusRejected        OrderStatus = "REJECTED"         // 已拒绝
	StatusCancelRequested OrderStatus = "CANCEL_REQUESTED" // 取消已受理，等待 worker 落地
)

// OrderSide 买卖方向
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

// TimeInForce 订单有效期
type TimeInForce string

const (
	TIFGtc TimeInForce = "GTC"
	TIFDay TimeInForce = "DAY"
	TIFIoc TimeInForce = "IOC"
	TIFFok TimeInForce = "FOK"
)

// Order 订单聚合根。
// CumQty/AvgPx/Status 在创建之后只允许执行引擎的 worker 修改；
// 数量和价格允许 amend 操作在重新风控后原地更新。
type Order struct {
	ID           uint                `json:"id"`
	OrderID      string              `json:"order_id"`
	ClientID     string              `json:"client_id"`
	Symbol       string              `json:"symbol"`
	Side         OrderSide           `json:"side"`
	Type         OrderType           `json:"type"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Price        decimal.NullDecimal `json:"price"`
	TimeInForce  TimeInForce         `json:"time_in_force"`
	Status       OrderStatus         `json:"status"`
	CumQty       decimal.Decimal     `json:"cum_qty"`
	AvgPx        decimal.NullDecimal `json:"avg_px"`
	RejectReason string              `json:"reject_reason"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`

	fsm *fsm.Machine[string, string]
}

// NewOrder 创建一笔 NEW 状态的订单
func NewOrder(clientID, symbol string, side OrderSide, orderType OrderType, qty decimal.Decimal, price decimal.NullDecimal, tif TimeInForce) *Order {
	if tif == "" {
		tif = TIFGtc
	}
	o := &Order{
		OrderID:     fmt.Sprintf("ORD-%d", idgen.GenID()),
		ClientID:    clientID,
		Symbol:      symbol,
		Side:        side,
		Type:        orderType,
		Quantity:    qty,
		Price:       price,
		TimeInForce: tif,
		Status:      StatusNew,
		CumQty:      decimal.Zero,
	}
	o.initFSM()
	return o
}

func (o *Order) initFSM() {
	m := fsm.NewMachine[string, string](string(o.Status))
	m.AddTransition(string(StatusNew), "SEND_START", string(StatusPendingSend))
	m.AddTransition(string(StatusPendingSend), "SEND_ACK", string(StatusSent))
	m.AddTransition(string(StatusSent), "PARTIAL_FILL", string(StatusPartiallyFilled))
	m.AddTransition(string(StatusSent), "FILL", string(StatusFilled))
	m.AddTransition(string(StatusPartiallyFilled), "FILL", string(StatusFilled))
	m.AddTransition(string(StatusNew), "REJECT", string(StatusRejected))
	m.AddTransition(string(StatusSent), "REJECT", string(StatusRejected))
	m.AddTransition(string(StatusNew), "REQUEST_CANCEL", string(StatusCancelRequested))
	m.AddTransition(string(StatusPendingSend), "REQUEST_CANCEL", string(StatusCancelRequested))
	m.AddTransition(string(StatusSent), "REQUEST_CANCEL", string(StatusCancelRequested))
	m.AddTransition(string(StatusPartiallyFilled), "REQUEST_CANCEL", string(StatusCancelRequested))
	m.AddTransition(string(StatusCancelRequested), "CANCEL", string(StatusCanceled))
	o.fsm = m
}

// InitFSM 确保状态机已初始化（仓储层重建聚合后调用）
func (o *Order) InitFSM() {
	if o.fsm == nil {
		o.initFSM()
	}
}

// Clone 复制订单并脱离状态机实例，供内存存储保存/读取时使用，
// 避免多个副本共享同一个状态机。
func (o *Order) Clone() *Order {
	c := *o
	c.fsm = nil
	return &c
}

// IsTerminal 是否处于终态
func (o *Order) IsTerminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCanceled || o.Status == StatusRejected
}

// CancelPending 取消是否已受理但尚未落地
func (o *Order) CancelPending() bool {
	return o.Status == StatusCancelRequested
}

// IsEditable amend 是否允许（仅 NEW 与 PARTIALLY_FILLED）
func (o *Order) IsEditable() bool {
	return o.Status == StatusNew || o.Status == StatusPartiallyFilled
}

// RemainingQuantity 剩余待成交数量
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.CumQty)
}

// MarkPendingSend 进入发送中状态
func (o *Order) MarkPendingSend(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "SEND_START"); err != nil {
		return err
	}
	o.Status = StatusPendingSend
	return nil
}

// MarkSent 模拟交易所已确认接收
func (o *Order) MarkSent(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "SEND_ACK"); err != nil {
		return err
	}
	o.Status = StatusSent
	return nil
}

// ApplyFill 记录一笔成交：累计成交量并按成交量加权更新均价。
// lot 不得超过剩余数量，保证 0 <= cum_qty <= qty 恒成立。
func (o *Order) ApplyFill(ctx context.Context, lot, px decimal.Decimal) error {
	if lot.Sign() <= 0 {
		return fmt.Errorf("%w: lot %s", ErrInvalidFill, lot)
	}
	newCum := o.CumQty.Add(lot)
	if newCum.GreaterThan(o.Quantity) {
		return fmt.Errorf("%w: cum %s exceeds qty %s", ErrInvalidFill, newCum, o.Quantity)
	}

	event := "PARTIAL_FILL"
	if newCum.Equal(o.Quantity) {
		event = "FILL"
	}

	o.InitFSM()
	if err := o.fsm.Trigger(ctx, event); err != nil {
		return err
	}

	prevAvg := decimal.Zero
	if o.AvgPx.Valid {
		prevAvg = o.AvgPx.Decimal
	}
	weighted := prevAvg.Mul(o.CumQty).Add(px.Mul(lot))
	o.AvgPx = decimal.NullDecimal{Decimal: weighted.Div(newCum), Valid: true}
	o.CumQty = newCum

	if event == "FILL" {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return nil
}

// MarkRejected 拒绝订单；已有拒绝原因时不覆盖
func (o *Order) MarkRejected(ctx context.Context, reason string) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "REJECT"); err != nil {
		return err
	}
	o.Status = StatusRejected
	if o.RejectReason == "" {
		o.RejectReason = reason
	}
	return nil
}

// RequestCancel 受理取消请求，真正的取消由 worker 在下一个检查点落地
func (o *Order) RequestCancel(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "REQUEST_CANCEL"); err != nil {
		return err
	}
	o.Status = StatusCancelRequested
	return nil
}

// MarkCanceled 落地取消。直接对未受理取消的订单调用时先走 REQUEST_CANCEL。
func (o *Order) MarkCanceled(ctx context.Context) error {
	o.InitFSM()
	if o.Status != StatusCancelRequested {
		if err := o.RequestCancel(ctx); err != nil {
			return err
		}
	}
	if err := o.fsm.Trigger(ctx, "CANCEL"); err != nil {
		return err
	}
	o.Status = StatusCanceled
	return nil
}

// Amend 原地修改数量/价格。状态不变，风控校验由应用层在调用前完成。
func (o *Order) Amend(newQty decimal.Decimal, newPrice decimal.NullDecimal) error {
	if !o.IsEditable() {
		return fmt.Errorf("%w: status %s, editable statuses are %s and %s",
			ErrNotEditable, o.Status, StatusNew, StatusPartiallyFilled)
	}
	if newQty.LessThan(o.CumQty) {
		return fmt.Errorf("%w: new qty %s below filled %s", ErrQtyBelowFilled, newQty, o.CumQty)
	}
	o.Quantity = newQty
	o.Price = newPrice
	return nil
}
