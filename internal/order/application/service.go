// 生成摘要：订单应用服务，串联风控校验、落库、网关投递与事件发布。
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

// OrderService 订单应用服务
type OrderService struct {
	orders     domain.OrderRepository
	executions domain.ExecutionRepository
	risk       domain.RiskGate
	gateway    domain.ExecutionGateway
	publisher  domain.EventPublisher
	locks      *domain.LockRegistry
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewOrderService 创建订单应用服务
func NewOrderService(
	orders domain.OrderRepository,
	executions domain.ExecutionRepository,
	risk domain.RiskGate,
	gateway domain.ExecutionGateway,
	publisher domain.EventPublisher,
	locks *domain.LockRegistry,
	logger *slog.Logger,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:     orders,
		executions: executions,
		risk:       risk,
		gateway:    gateway,
		publisher:  publisher,
		locks:      locks,
		logger:     logger,
		metrics:    m,
	}
}

// Create 受理下单。风控违规的订单直接落库为 REJECTED 并同步发布拒绝事件，
// 不进入执行队列；队列满时同样落库为 REJECTED（原因 ENGINE_BUSY）。
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	price := decimal.NullDecimal{}
	if req.Price != nil {
		price = decimal.NullDecimal{Decimal: *req.Price, Valid: true}
	}
	order := domain.NewOrder(
		req.ClientID,
		req.Symbol,
		domain.OrderSide(req.Side),
		domain.OrderType(req.Type),
		req.Qty,
		price,
		domain.TimeInForce(req.TimeInForce),
	)

	violation, err := s.risk.Check(ctx, order)
	if err != nil {
		return nil, err
	}
	if violation != nil {
		if err := order.MarkRejected(ctx, violation.Code); err != nil {
			return nil, err
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, err
		}
		s.publishReject(ctx, order, violation.Code, violation.Message)
		s.countReject(violation.Code)
		s.logger.InfoContext(ctx, "order rejected by risk check",
			"order_id", order.OrderID,
			"client_id", order.ClientID,
			"symbol", order.Symbol,
			"reason", violation.Code)
		return NewOrderResponse(order), nil
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.gateway.EnqueueSend(order.OrderID); err != nil {
		if errors.Is(err, domain.ErrQueueFull) {
			return s.rejectBusy(ctx, order)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.Inc()
	}
	s.logger.InfoContext(ctx, "order accepted",
		"order_id", order.OrderID,
		"client_id", order.ClientID,
		"symbol", order.Symbol,
		"side", string(order.Side),
		"qty", order.Quantity.String())
	return NewOrderResponse(order), nil
}

// rejectBusy 指令队列满：订单已落库为 NEW 且从未入队，
// 改写为 REJECTED 并发布拒绝事件。
func (s *OrderService) rejectBusy(ctx context.Context, order *domain.Order) (*OrderResponse, error) {
	s.logger.WarnContext(ctx, "command queue full, rejecting order", "order_id", order.OrderID)

	if err := order.MarkRejected(ctx, ErrEngineBusy.Code); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishReject(ctx, order, ErrEngineBusy.Code, ErrEngineBusy.Message)
	s.countReject(ErrEngineBusy.Code)
	return NewOrderResponse(order), nil
}

// Cancel 受理取消。终态订单与已受理取消的订单是幂等 no-op；
// 其余订单先入队再落 CANCEL_REQUESTED，真正取消由 worker 在检查点落地。
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, accepted, err := s.requestCancel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if accepted {
		s.publishUpdate(ctx, order)
		s.logger.InfoContext(ctx, "cancel accepted", "order_id", orderID)
	}
	return NewOrderResponse(order), nil
}

// requestCancel 在订单锁内完成幂等检查、入队与 CANCEL_REQUESTED 落库，
// 返回是否真正受理；事件在锁外发布。持锁期间入队，
// worker 拿到同一把锁前 CANCEL_REQUESTED 必然已落库。
func (s *OrderService) requestCancel(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		return nil, false, ErrOrderNotFound
	}

	if order.IsTerminal() || order.CancelPending() {
		return order, false, nil
	}

	if err := s.gateway.EnqueueCancel(order.OrderID); err != nil {
		if errors.Is(err, domain.ErrQueueFull) {
			s.logger.WarnContext(ctx, "command queue full, cancel not accepted", "order_id", orderID)
			return nil, false, ErrEngineBusy
		}
		return nil, false, err
	}

	if err := order.RequestCancel(ctx); err != nil {
		return nil, false, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// Amend 改单：仅 NEW / PARTIALLY_FILLED 可改，新数量不得低于已成交量，
// 完整风控管线对改后的数量/价格重跑，通过后原地更新且状态不变。
func (s *OrderService) Amend(ctx context.Context, orderID string, req AmendOrderRequest) (*OrderResponse, error) {
	order, err := s.applyAmend(ctx, orderID, req)
	if err != nil {
		return nil, err
	}
	s.publishUpdate(ctx, order)
	s.logger.InfoContext(ctx, "order amended",
		"order_id", orderID,
		"qty", order.Quantity.String())
	return NewOrderResponse(order), nil
}

// applyAmend 在订单锁内校验并原地更新订单，事件在锁外发布。
func (s *OrderService) applyAmend(ctx context.Context, orderID string, req AmendOrderRequest) (*domain.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	newQty := order.Quantity
	if req.Qty != nil {
		newQty = *req.Qty
	}
	newPrice := order.Price
	if req.Price != nil {
		newPrice = decimal.NullDecimal{Decimal: *req.Price, Valid: true}
	}

	// 先在副本上验证可改性与风控，失败时订单不发生任何变化。
	candidate := order.Clone()
	if err := candidate.Amend(newQty, newPrice); err != nil {
		return nil, err
	}
	violation, err := s.risk.Check(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if violation != nil {
		return nil, NewError(violation.Code, violation.Message)
	}

	if err := order.Amend(newQty, newPrice); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get 查询单个订单
func (s *OrderService) Get(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return NewOrderResponse(order), nil
}

// List 条件查询订单，按创建时间倒序
func (s *OrderService) List(ctx context.Context, clientID, symbol, status string, limit, offset int) ([]*OrderResponse, error) {
	orders, err := s.orders.List(ctx, domain.OrderFilter{
		ClientID: clientID,
		Symbol:   symbol,
		Status:   domain.OrderStatus(status),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}
	result := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = NewOrderResponse(o)
	}
	return result, nil
}

// ListExecutions 查询订单的成交明细
func (s *OrderService) ListExecutions(ctx context.Context, orderID string) ([]*ExecutionResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	executions, err := s.executions.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := make([]*ExecutionResponse, len(executions))
	for i, e := range executions {
		result[i] = NewExecutionResponse(e)
	}
	return result, nil
}

func (s *OrderService) publishUpdate(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderUpdate(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order update", "order_id", order.OrderID, "error", err)
	}
}

func (s *OrderService) publishReject(ctx context.Context, order *domain.Order, code, message string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderReject(ctx, order, code, message); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order reject", "order_id", order.OrderID, "error", err)
	}
}

func (s *OrderService) countReject(reason string) {
	if s.metrics != nil {
		s.metrics.OrdersRejectedTotal.WithLabelValues(reason).Inc()
	}
}
