// 生成摘要：行情应用服务。维护参考价表并向风控暴露取价端口，
// 价格来源为配置预置与可选的 Kafka 行情消费。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/domain"
)

// MarketDataService 行情应用服务，实现风控的参考价来源端口
type MarketDataService struct {
	prices domain.PriceRepository
	logger *slog.Logger
}

// NewMarketDataService 创建行情应用服务
func NewMarketDataService(prices domain.PriceRepository, logger *slog.Logger) *MarketDataService {
	return &MarketDataService{
		prices: prices,
		logger: logger.With("module", "marketdata_service"),
	}
}

// Seed 预置配置里的参考价，非正数价格跳过
func (s *MarketDataService) Seed(ctx context.Context, prices map[string]float64) {
	for symbol, raw := range prices {
		px := decimal.NewFromFloat(raw)
		if px.Sign() <= 0 {
			s.logger.WarnContext(ctx, "预置参考价非法，已跳过", "symbol", symbol, "price", raw)
			continue
		}
		if err := s.SetPrice(ctx, symbol, px); err != nil {
			s.logger.WarnContext(ctx, "预置参考价失败", "symbol", symbol, "error", err)
		}
	}
}

// SetPrice 写入参考价，符号统一大写
func (s *MarketDataService) SetPrice(ctx context.Context, symbol string, price decimal.Decimal) error {
	symbol = normalize(symbol)
	if symbol == "" {
		return fmt.Errorf("参考价符号不能为空")
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("参考价必须为正数: %s", price)
	}
	err := s.prices.Set(ctx, &domain.ReferencePrice{
		Symbol:    symbol,
		Price:     price,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("写入参考价失败: %w", err)
	}
	return nil
}

// ReferencePrice 取参考价，未知符号返回无效值而非错误，
// 让风控按缺失参考价处理。
func (s *MarketDataService) ReferencePrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	p, err := s.prices.Get(ctx, normalize(symbol))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("查询参考价失败: %w", err)
	}
	if p == nil {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: p.Price, Valid: true}, nil
}

// ListPrices 列出当前参考价表
func (s *MarketDataService) ListPrices(ctx context.Context) ([]*PriceResponse, error) {
	prices, err := s.prices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询参考价列表失败: %w", err)
	}
	result := make([]*PriceResponse, 0, len(prices))
	for _, p := range prices {
		result = append(result, NewPriceResponse(p))
	}
	return result, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
