package application

import (
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// PositionResponse 派生持仓视图，金额字段序列化为字符串避免精度损失
type PositionResponse struct {
	ClientID      string `json:"clientId"`
	Symbol        string `json:"symbol"`
	NetQty        string `json:"netQty"`
	AvgPx         string `json:"avgPx"`
	UnrealizedPnl string `json:"unrealizedPnl"`
}

// NewPositionResponse 由持仓视图生成响应
func NewPositionResponse(p *orderdomain.Position) *PositionResponse {
	return &PositionResponse{
		ClientID:      p.ClientID,
		Symbol:        p.Symbol,
		NetQty:        p.NetQty.String(),
		AvgPx:         p.AvgPx.String(),
		UnrealizedPnl: p.UnrealizedPnl.String(),
	}
}
