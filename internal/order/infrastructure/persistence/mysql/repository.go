// 生成摘要：订单、成交与持仓聚合的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
)

// OrderMySQLRepository 订单 MySQL 仓储实现
type OrderMySQLRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	_ = db.AutoMigrate(&OrderModel{})
	return &OrderMySQLRepository{db: db}
}

func (r *OrderMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *OrderMySQLRepository) Create(ctx context.Context, order *domain.Order) error {
	model := r.toModel(order)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		logging.Error(ctx, "创建订单失败", "order_id", order.OrderID, "error", err)
		return fmt.Errorf("创建订单失败: %w", err)
	}
	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *OrderMySQLRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	if err := r.getDB(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	return r.toDomain(&model), nil
}

func (r *OrderMySQLRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	query := r.getDB(ctx).Model(&OrderModel{})
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Symbol != "" {
		query = query.Where("symbol = ?", filter.Symbol)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = query.Order("created_at DESC, id DESC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var models []OrderModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("查询订单列表失败: %w", err)
	}
	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = r.toDomain(&m)
	}
	return orders, nil
}

// Save 以业务订单号为冲突键做 upsert，全量覆盖可变字段。
func (r *OrderMySQLRepository) Save(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = order.UpdatedAt
	}
	model := r.toModel(order)
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "price", "time_in_force", "status",
			"cum_qty", "avg_px", "reject_reason", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		logging.Error(ctx, "保存订单失败", "order_id", order.OrderID, "error", err)
		return fmt.Errorf("保存订单失败: %w", err)
	}
	if order.ID == 0 {
		order.ID = model.ID
	}
	return nil
}

func (r *OrderMySQLRepository) toModel(order *domain.Order) *OrderModel {
	return &OrderModel{
		Model:        gorm.Model{ID: order.ID, CreatedAt: order.CreatedAt, UpdatedAt: order.UpdatedAt},
		OrderID:      order.OrderID,
		ClientID:     order.ClientID,
		Symbol:       order.Symbol,
		Side:         string(order.Side),
		Type:         string(order.Type),
		Quantity:     order.Quantity,
		Price:        order.Price,
		TimeInForce:  string(order.TimeInForce),
		Status:       string(order.Status),
		CumQty:       order.CumQty,
		AvgPx:        order.AvgPx,
		RejectReason: order.RejectReason,
	}
}

func (r *OrderMySQLRepository) toDomain(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:           m.Model.ID,
		OrderID:      m.OrderID,
		ClientID:     m.ClientID,
		Symbol:       m.Symbol,
		Side:         domain.OrderSide(m.Side),
		Type:         domain.OrderType(m.Type),
		Quantity:     m.Quantity,
		Price:        m.Price,
		TimeInForce:  domain.TimeInForce(m.TimeInForce),
		Status:       domain.OrderStatus(m.Status),
		CumQty:       m.CumQty,
		AvgPx:        m.AvgPx,
		RejectReason: m.RejectReason,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	o.InitFSM()
	return o
}

// ExecutionMySQLRepository 成交 MySQL 仓储实现
type ExecutionMySQLRepository struct {
	db *gorm.DB
}

// NewExecutionRepository 创建成交仓储
func NewExecutionRepository(db *gorm.DB) domain.ExecutionRepository {
	_ = db.AutoMigrate(&ExecutionModel{})
	return &ExecutionMySQLRepository{db: db}
}

func (r *ExecutionMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *ExecutionMySQLRepository) Append(ctx context.Context, execution *domain.Execution) error {
	model := &ExecutionModel{
		ExecID:     execution.ExecID,
		OrderID:    execution.OrderID,
		Quantity:   execution.Quantity,
		Price:      execution.Price,
		ExecutedAt: execution.ExecutedAt,
	}
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		logging.Error(ctx, "写入成交记录失败", "exec_id", execution.ExecID, "order_id", execution.OrderID, "error", err)
		return fmt.Errorf("写入成交记录失败: %w", err)
	}
	execution.ID = model.ID
	execution.CreatedAt = model.CreatedAt
	return nil
}

func (r *ExecutionMySQLRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	var models []ExecutionModel
	if err := r.getDB(ctx).Where("order_id = ?", orderID).Order("executed_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("查询订单成交失败: %w", err)
	}
	return r.toDomainList(models), nil
}

func (r *ExecutionMySQLRepository) ListAll(ctx context.Context) ([]*domain.Execution, error) {
	var models []ExecutionModel
	if err := r.getDB(ctx).Order("executed_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("查询全部成交失败: %w", err)
	}
	return r.toDomainList(models), nil
}

func (r *ExecutionMySQLRepository) toDomainList(models []ExecutionModel) []*domain.Execution {
	executions := make([]*domain.Execution, len(models))
	for i, m := range models {
		executions[i] = &domain.Execution{
			ID:         m.Model.ID,
			ExecID:     m.ExecID,
			OrderID:    m.OrderID,
			Quantity:   m.Quantity,
			Price:      m.Price,
			ExecutedAt: m.ExecutedAt,
			CreatedAt:  m.CreatedAt,
		}
	}
	return executions
}

// PositionMySQLQuery 基于成交表的持仓聚合查询实现。
// 净持仓按方向带符号累加，均价为两个方向合计的成交量加权价。
type PositionMySQLQuery struct {
	db *gorm.DB
}

// NewPositionQuery 创建持仓聚合查询
func NewPositionQuery(db *gorm.DB) domain.PositionQuery {
	return &PositionMySQLQuery{db: db}
}

func (q *PositionMySQLQuery) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return q.db.WithContext(ctx)
}

type positionRow struct {
	ClientID string              `gorm:"column:client_id"`
	Symbol   string              `gorm:"column:symbol"`
	NetQty   decimal.Decimal     `gorm:"column:net_qty"`
	AvgPx    decimal.NullDecimal `gorm:"column:avg_px"`
}

func (q *PositionMySQLQuery) ByClient(ctx context.Context, clientID string) ([]*domain.Position, error) {
	const query = `
SELECT o.client_id AS client_id,
       o.symbol AS symbol,
       SUM(CASE WHEN o.side = 'BUY' THEN e.quantity ELSE -e.quantity END) AS net_qty,
       SUM(e.quantity * e.price) / NULLIF(SUM(e.quantity), 0) AS avg_px
FROM executions e
JOIN orders o ON o.order_id = e.order_id
WHERE o.client_id = ?
  AND e.deleted_at IS NULL
  AND o.deleted_at IS NULL
GROUP BY o.client_id, o.symbol
ORDER BY o.symbol ASC`

	var rows []positionRow
	if err := q.getDB(ctx).Raw(query, clientID).Scan(&rows).Error; err != nil {
		logging.Error(ctx, "聚合持仓失败", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("聚合持仓失败: %w", err)
	}

	positions := make([]*domain.Position, len(rows))
	for i, row := range rows {
		avgPx := decimal.Zero
		if row.AvgPx.Valid {
			avgPx = row.AvgPx.Decimal
		}
		positions[i] = &domain.Position{
			ClientID:      row.ClientID,
			Symbol:        row.Symbol,
			NetQty:        row.NetQty,
			AvgPx:         avgPx,
			UnrealizedPnl: decimal.Zero,
		}
	}
	return positions, nil
}
