// 生成摘要：风控限额的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/ordermanagement/internal/risk/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
)

// RiskLimitMySQLRepository 限额 MySQL 仓储实现
type RiskLimitMySQLRepository struct {
	db *gorm.DB
}

// NewRiskLimitRepository 创建限额仓储
func NewRiskLimitRepository(db *gorm.DB) domain.RiskLimitRepository {
	_ = db.AutoMigrate(&RiskLimitModel{})
	return &RiskLimitMySQLRepository{db: db}
}

func (r *RiskLimitMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *RiskLimitMySQLRepository) Upsert(ctx context.Context, limit *domain.RiskLimit) error {
	model := r.toModel(limit)
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"max_notional", "max_order_size", "trading_hours", "blocked", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		logging.Error(ctx, "保存风控限额失败", "client_id", limit.ClientID, "symbol", limit.Symbol, "error", err)
		return fmt.Errorf("保存风控限额失败: %w", err)
	}
	if limit.ID == 0 {
		limit.ID = model.ID
	}
	limit.CreatedAt = model.CreatedAt
	limit.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *RiskLimitMySQLRepository) FindByClientAndSymbol(ctx context.Context, clientID, symbol string) (*domain.RiskLimit, error) {
	db := r.getDB(ctx)

	var model RiskLimitModel
	err := db.Where("client_id = ? AND symbol = ?", clientID, symbol).First(&model).Error
	if err == nil {
		return r.toDomain(&model), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询风控限额失败: %w", err)
	}
	if symbol == "" {
		return nil, nil
	}

	// 符号级未命中，回退客户级默认
	err = db.Where("client_id = ? AND symbol = ''", clientID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询风控限额失败: %w", err)
	}
	return r.toDomain(&model), nil
}

func (r *RiskLimitMySQLRepository) List(ctx context.Context, clientID string) ([]*domain.RiskLimit, error) {
	db := r.getDB(ctx)
	if clientID != "" {
		db = db.Where("client_id = ?", clientID)
	}

	var models []RiskLimitModel
	if err := db.Order("client_id ASC, symbol ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("查询风控限额列表失败: %w", err)
	}

	limits := make([]*domain.RiskLimit, 0, len(models))
	for i := range models {
		limits = append(limits, r.toDomain(&models[i]))
	}
	return limits, nil
}

func (r *RiskLimitMySQLRepository) toModel(l *domain.RiskLimit) *RiskLimitModel {
	model := &RiskLimitModel{
		ClientID:     l.ClientID,
		Symbol:       l.Symbol,
		MaxNotional:  l.MaxNotional,
		MaxOrderSize: l.MaxOrderSize,
		TradingHours: l.TradingHours,
		Blocked:      l.Blocked,
	}
	model.ID = l.ID
	return model
}

func (r *RiskLimitMySQLRepository) toDomain(m *RiskLimitModel) *domain.RiskLimit {
	return &domain.RiskLimit{
		ID:           m.ID,
		ClientID:     m.ClientID,
		Symbol:       m.Symbol,
		MaxNotional:  m.MaxNotional,
		MaxOrderSize: m.MaxOrderSize,
		TradingHours: m.TradingHours,
		Blocked:      m.Blocked,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
