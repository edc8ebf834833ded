package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// CreateOrderRequest 下单请求。qty/price 接受 JSON 数字或字符串，
// 数量与价格的业务校验走风控管线而非绑定层。
type CreateOrderRequest struct {
	ClientID    string           `json:"clientId" binding:"required"`
	Symbol      string           `json:"symbol" binding:"required"`
	Side        string           `json:"side" binding:"required,oneof=BUY SELL"`
	Type        string           `json:"type" binding:"required,oneof=MARKET LIMIT"`
	Qty         decimal.Decimal  `json:"qty"`
	Price       *decimal.Decimal `json:"price"`
	TimeInForce string           `json:"timeInForce" binding:"omitempty,oneof=GTC DAY IOC FOK"`
}

// AmendOrderRequest 改单请求，缺省字段表示保持原值
type AmendOrderRequest struct {
	Qty   *decimal.Decimal `json:"qty"`
	Price *decimal.Decimal `json:"price"`
}

// OrderResponse 订单响应。金额字段序列化为字符串避免精度损失，
// filledQty 与 cumQty 含义相同，兼容两种消费方。
type OrderResponse struct {
	ID           string  `json:"id"`
	ClientID     string  `json:"clientId"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Type         string  `json:"type"`
	Qty          string  `json:"qty"`
	Price        *string `json:"price"`
	TimeInForce  string  `json:"timeInForce"`
	Status       string  `json:"status"`
	CumQty       string  `json:"cumQty"`
	FilledQty    string  `json:"filledQty"`
	AvgPx        *string `json:"avgPx"`
	RejectReason *string `json:"rejectReason"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// NewOrderResponse 由订单聚合生成响应
func NewOrderResponse(o *domain.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:          o.OrderID,
		ClientID:    o.ClientID,
		Symbol:      o.Symbol,
		Side:        string(o.Side),
		Type:        string(o.Type),
		Qty:         o.Quantity.String(),
		TimeInForce: string(o.TimeInForce),
		Status:      string(o.Status),
		CumQty:      o.CumQty.String(),
		FilledQty:   o.CumQty.String(),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339),
	}
	if o.Price.Valid {
		px := o.Price.Decimal.String()
		resp.Price = &px
	}
	if o.AvgPx.Valid {
		avg := o.AvgPx.Decimal.String()
		resp.AvgPx = &avg
	}
	if o.RejectReason != "" {
		reason := o.RejectReason
		resp.RejectReason = &reason
	}
	return resp
}

// ExecutionResponse 成交响应
type ExecutionResponse struct {
	ID         string `json:"id"`
	OrderID    string `json:"orderId"`
	Qty        string `json:"qty"`
	Price      string `json:"price"`
	ExecutedAt string `json:"executedAt"`
}

// NewExecutionResponse 由成交记录生成响应
func NewExecutionResponse(e *domain.Execution) *ExecutionResponse {
	return &ExecutionResponse{
		ID:         e.ExecID,
		OrderID:    e.OrderID,
		Qty:        e.Quantity.String(),
		Price:      e.Price.String(),
		ExecutedAt: e.ExecutedAt.Format(time.RFC3339),
	}
}
