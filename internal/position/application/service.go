// Package application 持仓读侧应用服务。持仓不落库，
// 全部由订单存储的成交聚合推导，这里只负责查询编排与 DTO 映射。
package application

import (
	"context"
	"fmt"
	"log/slog"

	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// PositionService 持仓查询服务
type PositionService struct {
	positions orderdomain.PositionQuery
	logger    *slog.Logger
}

// NewPositionService 创建持仓查询服务
func NewPositionService(positions orderdomain.PositionQuery, logger *slog.Logger) *PositionService {
	return &PositionService{
		positions: positions,
		logger:    logger.With("module", "position_service"),
	}
}

// ByClient 按客户列出派生持仓
func (s *PositionService) ByClient(ctx context.Context, clientID string) ([]*PositionResponse, error) {
	positions, err := s.positions.ByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("查询客户持仓失败: %w", err)
	}

	result := make([]*PositionResponse, 0, len(positions))
	for _, p := range positions {
		result = append(result, NewPositionResponse(p))
	}
	return result, nil
}
