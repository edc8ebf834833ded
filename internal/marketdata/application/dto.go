package application

import (
	"time"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/domain"
)

// PriceResponse 参考价视图
type PriceResponse struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	UpdatedAt string `json:"updatedAt"`
}

// NewPriceResponse 由参考价生成响应
func NewPriceResponse(p *domain.ReferencePrice) *PriceResponse {
	return &PriceResponse{
		Symbol:    p.Symbol,
		Price:     p.Price.String(),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
