package domain

import (
	"context"
	"time"
)

// EventType 事件类型
type EventType string

const (
	EventOrderUpdate EventType = "ORDER_UPDATE"
	EventOrderReject EventType = "ORDER_REJECT"
)

// Event 推送给订阅方的事件信封
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// OrderSnapshot 订单在事件流中的快照，字段与前端约定保持 camelCase，
// 金额类字段序列化为字符串避免精度损失。
type OrderSnapshot struct {
	ID           string  `json:"id"`
	ClientID     string  `json:"clientId"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Type         string  `json:"type"`
	Qty          string  `json:"qty"`
	Price        *string `json:"price"`
	Status       string  `json:"status"`
	FilledQty    string  `json:"filledQty"`
	AvgPx        *string `json:"avgPx"`
	RejectReason *string `json:"rejectReason"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// RejectDetail 拒绝事件的负载，附带订单快照
type RejectDetail struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Order   OrderSnapshot `json:"order"`
}

// Snapshot 生成订单的事件快照
func (o *Order) Snapshot() OrderSnapshot {
	s := OrderSnapshot{
		ID:        o.OrderID,
		ClientID:  o.ClientID,
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Type:      string(o.Type),
		Qty:       o.Quantity.String(),
		Status:    string(o.Status),
		FilledQty: o.CumQty.String(),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
	}
	if o.Price.Valid {
		px := o.Price.Decimal.String()
		s.Price = &px
	}
	if o.AvgPx.Valid {
		avg := o.AvgPx.Decimal.String()
		s.AvgPx = &avg
	}
	if o.RejectReason != "" {
		reason := o.RejectReason
		s.RejectReason = &reason
	}
	return s
}

// OrderTopic 客户端事件主题，所有订单事件按客户隔离分发
func OrderTopic(clientID string) string {
	return "orders." + clientID
}

// EventPublisher 订单事件发布接口
type EventPublisher interface {
	// PublishOrderUpdate 发布状态变更事件
	PublishOrderUpdate(ctx context.Context, order *Order) error
	// PublishOrderReject 发布拒绝事件
	PublishOrderReject(ctx context.Context, order *Order, code, message string) error
}
