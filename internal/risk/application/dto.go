package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/risk/domain"
)

// UpsertLimitRequest 限额写入请求。symbol 留空表示客户级默认限额；
// maxNotional / maxOrderSize 为 0 表示不设上限。
type UpsertLimitRequest struct {
	ClientID     string          `json:"clientId" binding:"required"`
	Symbol       string          `json:"symbol"`
	MaxNotional  decimal.Decimal `json:"maxNotional"`
	MaxOrderSize decimal.Decimal `json:"maxOrderSize"`
	TradingHours string          `json:"tradingHours"`
	Blocked      bool            `json:"blocked"`
}

// LimitResponse 限额视图，金额字段序列化为字符串。
type LimitResponse struct {
	ID           uint   `json:"id"`
	ClientID     string `json:"clientId"`
	Symbol       string `json:"symbol"`
	MaxNotional  string `json:"maxNotional"`
	MaxOrderSize string `json:"maxOrderSize"`
	TradingHours string `json:"tradingHours"`
	Blocked      bool   `json:"blocked"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// NewLimitResponse 由领域对象生成限额视图
func NewLimitResponse(l *domain.RiskLimit) *LimitResponse {
	return &LimitResponse{
		ID:           l.ID,
		ClientID:     l.ClientID,
		Symbol:       l.Symbol,
		MaxNotional:  l.MaxNotional.String(),
		MaxOrderSize: l.MaxOrderSize.String(),
		TradingHours: l.TradingHours,
		Blocked:      l.Blocked,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.Format(time.RFC3339),
	}
}
