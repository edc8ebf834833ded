// 生成摘要：模拟 FIX 网关的执行引擎，单 worker 串行消费有界指令队列，
// 驱动订单状态机并模拟交易所侧的时延、部分成交与拒单。
package application

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/fixgateway/domain"
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

// partialLotRatio 部分成交时首笔成交量占剩余量的比例
var partialLotRatio = decimal.NewFromFloat(0.4)

// ExecutionEngine 模拟交易所的执行引擎。
// 所有 Send/Cancel 指令进入同一个有界队列，由唯一的 worker 串行处理完
// 一条（含模拟时延）才取下一条，由此获得跨订单的全序状态迁移；
// 模拟时延窗口内新指令只排队不处理，Cancel 依赖 Send 流程中的
// 检查点协作生效，没有抢占。
type ExecutionEngine struct {
	orders     orderdomain.OrderRepository
	executions orderdomain.ExecutionRepository
	publisher  orderdomain.EventPublisher
	locks      *orderdomain.LockRegistry
	logger     *slog.Logger
	metrics    *metrics.Metrics

	cfg   domain.Config
	rng   *rand.Rand
	queue chan domain.Command

	closed uint32
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewExecutionEngine 创建执行引擎，需调用 Start 启动 worker。
func NewExecutionEngine(
	cfg domain.Config,
	orders orderdomain.OrderRepository,
	executions orderdomain.ExecutionRepository,
	publisher orderdomain.EventPublisher,
	locks *orderdomain.LockRegistry,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ExecutionEngine {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = domain.DefaultQueueCapacity
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ExecutionEngine{
		orders:     orders,
		executions: executions,
		publisher:  publisher,
		locks:      locks,
		logger:     logger.With("module", "execution_engine"),
		metrics:    m,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
		queue:      make(chan domain.Command, capacity),
		stop:       make(chan struct{}),
	}
}

// Start 启动唯一的 worker 协程，只能调用一次。
func (e *ExecutionEngine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop 停止接收新指令并等待 worker 退出；队列中尚未处理的指令被丢弃。
func (e *ExecutionEngine) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	close(e.stop)
	e.wg.Wait()
}

// EnqueueSend 投递 Send 指令，队列满时立即返回 ErrQueueFull。
func (e *ExecutionEngine) EnqueueSend(orderID string) error {
	return e.enqueue(domain.Command{Type: domain.CommandSend, OrderID: orderID})
}

// EnqueueCancel 投递 Cancel 指令，队列满时立即返回 ErrQueueFull。
func (e *ExecutionEngine) EnqueueCancel(orderID string) error {
	return e.enqueue(domain.Command{Type: domain.CommandCancel, OrderID: orderID})
}

func (e *ExecutionEngine) enqueue(cmd domain.Command) error {
	if atomic.LoadUint32(&e.closed) == 1 {
		return domain.ErrEngineClosed
	}
	select {
	case e.queue <- cmd:
		if e.metrics != nil {
			e.metrics.CommandQueueDepth.Set(float64(len(e.queue)))
		}
		return nil
	default:
		if e.metrics != nil {
			e.metrics.CommandQueueRejects.Inc()
		}
		return orderdomain.ErrQueueFull
	}
}

func (e *ExecutionEngine) run() {
	defer e.wg.Done()
	e.logger.Info("execution engine worker started", "queue_capacity", cap(e.queue))
	for {
		select {
		case <-e.stop:
			e.logger.Info("execution engine worker stopped", "pending", len(e.queue))
			return
		case cmd := <-e.queue:
			e.dispatch(context.Background(), cmd)
			if e.metrics != nil {
				e.metrics.CommandQueueDepth.Set(float64(len(e.queue)))
			}
		}
	}
}

func (e *ExecutionEngine) dispatch(ctx context.Context, cmd domain.Command) {
	switch cmd.Type {
	case domain.CommandSend:
		e.processSend(ctx, cmd.OrderID)
	case domain.CommandCancel:
		e.processCancel(ctx, cmd.OrderID)
	default:
		e.logger.WarnContext(ctx, "unknown command discarded", "type", string(cmd.Type), "order_id", cmd.OrderID)
	}
}

// processSend 驱动一笔订单走完发送与成交模拟：
// PENDING_SEND -> 时延 -> SENT -> 拒单/成交抽签 -> 成交回报，
// 每段时延结束后重新读取订单，让排在后面的 Cancel 能在窗口内胜出。
func (e *ExecutionEngine) processSend(ctx context.Context, orderID string) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to load order for send", "order_id", orderID, "error", err)
		return
	}
	if order == nil {
		e.logger.WarnContext(ctx, "send discarded, order not found", "order_id", orderID)
		return
	}
	if order.IsTerminal() || order.CancelPending() {
		e.logger.InfoContext(ctx, "send discarded", "order_id", orderID, "status", string(order.Status))
		return
	}

	order, ok := e.applyTransition(ctx, orderID, "pending_send", func(o *orderdomain.Order) error {
		return o.MarkPendingSend(ctx)
	})
	if !ok {
		return
	}

	time.Sleep(e.cfg.SendLatency)
	if e.canceledOrGone(ctx, orderID) {
		return
	}

	order, ok = e.applyTransition(ctx, orderID, "sent", func(o *orderdomain.Order) error {
		return o.MarkSent(ctx)
	})
	if !ok {
		return
	}

	if order.RemainingQuantity().Sign() <= 0 {
		return
	}

	if e.canceledOrGone(ctx, orderID) {
		return
	}

	if e.rng.Float64() < e.cfg.RejectProb {
		e.rejectOrder(ctx, orderID)
		return
	}

	px := e.fillPrice(order)
	ratio := decimal.NewFromInt(1)
	if e.rng.Float64() < e.cfg.PartialProb {
		ratio = partialLotRatio
	}

	order, ok = e.fill(ctx, orderID, px, ratio)
	if !ok || order.Status == orderdomain.StatusFilled {
		return
	}

	// 部分成交：等待第二段时延后按同一价格补齐剩余量。
	time.Sleep(e.cfg.FillLatency)
	if e.canceledOrGone(ctx, orderID) {
		return
	}
	e.fill(ctx, orderID, px, decimal.NewFromInt(1))
}

// processCancel 落地取消。订单不存在或已终态时静默丢弃，
// 取消已终态订单是 no-op 而不是错误。
func (e *ExecutionEngine) processCancel(ctx context.Context, orderID string) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to load order for cancel", "order_id", orderID, "error", err)
		return
	}
	if order == nil {
		e.logger.WarnContext(ctx, "cancel discarded, order not found", "order_id", orderID)
		return
	}
	if order.IsTerminal() {
		e.logger.InfoContext(ctx, "cancel ignored, order already terminal", "order_id", orderID, "status", string(order.Status))
		return
	}

	time.Sleep(e.cfg.CancelLatency)

	order, ok := e.applyTransition(ctx, orderID, "canceled", func(o *orderdomain.Order) error {
		return o.MarkCanceled(ctx)
	})
	if !ok {
		return
	}
	if e.metrics != nil {
		e.metrics.OrdersCanceledTotal.Inc()
	}
	e.logger.InfoContext(ctx, "order canceled", "order_id", orderID, "client_id", order.ClientID)
}

// applyTransition 提交一次状态迁移，成功后在锁外发布 ORDER_UPDATE。
// 状态机拒绝迁移视为并发竞争中让步，丢弃当前步骤即可。
func (e *ExecutionEngine) applyTransition(ctx context.Context, orderID, step string, mutate func(*orderdomain.Order) error) (*orderdomain.Order, bool) {
	order, ok := e.commitTransition(ctx, orderID, step, mutate)
	if !ok {
		return nil, false
	}
	e.publishUpdate(ctx, order)
	return order, true
}

// commitTransition 在订单锁内完成 重新加载 -> 迁移 -> 保存。
func (e *ExecutionEngine) commitTransition(ctx context.Context, orderID, step string, mutate func(*orderdomain.Order) error) (*orderdomain.Order, bool) {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to reload order", "order_id", orderID, "step", step, "error", err)
		return nil, false
	}
	if order == nil {
		e.logger.WarnContext(ctx, "order vanished, command discarded", "order_id", orderID, "step", step)
		return nil, false
	}
	if err := mutate(order); err != nil {
		e.logger.InfoContext(ctx, "transition skipped", "order_id", orderID, "step", step, "status", string(order.Status), "error", err)
		return nil, false
	}
	if err := e.orders.Save(ctx, order); err != nil {
		e.logger.ErrorContext(ctx, "failed to save order", "order_id", orderID, "step", step, "error", err)
		return nil, false
	}
	return order, true
}

// fill 按剩余量的 ratio 提交一笔成交，成功后在锁外发布 ORDER_UPDATE。
func (e *ExecutionEngine) fill(ctx context.Context, orderID string, px, ratio decimal.Decimal) (*orderdomain.Order, bool) {
	order, ok := e.commitFill(ctx, orderID, px, ratio)
	if !ok {
		return nil, false
	}
	e.publishUpdate(ctx, order)
	return order, true
}

// commitFill 在订单锁内重新加载订单并按剩余量的 ratio 记一笔成交。
// 成交量在锁内按最新剩余量计算，时延期间 amend 改过数量也不会超量成交。
func (e *ExecutionEngine) commitFill(ctx context.Context, orderID string, px, ratio decimal.Decimal) (*orderdomain.Order, bool) {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to reload order", "order_id", orderID, "step", "fill", "error", err)
		return nil, false
	}
	if order == nil {
		e.logger.WarnContext(ctx, "order vanished, fill discarded", "order_id", orderID)
		return nil, false
	}
	if order.IsTerminal() || order.CancelPending() {
		return nil, false
	}

	lot := order.RemainingQuantity().Mul(ratio)
	if lot.Sign() <= 0 {
		return nil, false
	}
	if err := order.ApplyFill(ctx, lot, px); err != nil {
		e.logger.InfoContext(ctx, "fill skipped", "order_id", orderID, "status", string(order.Status), "error", err)
		return nil, false
	}

	execution := orderdomain.NewExecution(order.OrderID, lot, px)
	if err := e.executions.Append(ctx, execution); err != nil {
		e.logger.ErrorContext(ctx, "failed to append execution", "order_id", orderID, "error", err)
		return nil, false
	}
	if err := e.orders.Save(ctx, order); err != nil {
		e.logger.ErrorContext(ctx, "failed to save order", "order_id", orderID, "step", "fill", "error", err)
		return nil, false
	}

	if e.metrics != nil {
		e.metrics.ExecutionsTotal.Inc()
		if order.Status == orderdomain.StatusFilled {
			e.metrics.OrdersFilledTotal.Inc()
		}
	}
	e.logger.InfoContext(ctx, "order filled",
		"order_id", orderID,
		"lot", lot.String(),
		"px", px.String(),
		"cum_qty", order.CumQty.String(),
		"status", string(order.Status))
	return order, true
}

// rejectOrder 模拟交易所拒单：先发 ORDER_UPDATE 再发 ORDER_REJECT。
func (e *ExecutionEngine) rejectOrder(ctx context.Context, orderID string) {
	order, ok := e.applyTransition(ctx, orderID, "rejected", func(o *orderdomain.Order) error {
		return o.MarkRejected(ctx, domain.RejectReasonFIX)
	})
	if !ok {
		return
	}
	if e.metrics != nil {
		e.metrics.OrdersRejectedTotal.WithLabelValues(order.RejectReason).Inc()
	}
	e.logger.InfoContext(ctx, "order rejected by venue", "order_id", orderID, "reason", order.RejectReason)
	e.publishReject(ctx, order)
}

// canceledOrGone 时延结束后的检查点：订单消失、已终态或已请求取消
// 都让当前 Send 立即让步，后续由队列中的 Cancel 指令收尾。
func (e *ExecutionEngine) canceledOrGone(ctx context.Context, orderID string) bool {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "recheck failed, aborting send", "order_id", orderID, "error", err)
		return true
	}
	if order == nil {
		return true
	}
	return order.IsTerminal() || order.CancelPending()
}

// fillPrice 成交价：限价单用自身限价，市价单用模拟行情价。
func (e *ExecutionEngine) fillPrice(order *orderdomain.Order) decimal.Decimal {
	if order.Price.Valid {
		return order.Price.Decimal
	}
	return e.mockMarketPx(order.Symbol)
}

// mockMarketPx 模拟行情价：XAU 系基准 2000，其余按 1.10 计，
// 上下浮动不超过 1 并保留两位小数。
func (e *ExecutionEngine) mockMarketPx(symbol string) decimal.Decimal {
	base := 1.1000
	if strings.HasPrefix(strings.ToUpper(symbol), "XAU") {
		base = 2000.0
	}
	return decimal.NewFromFloat(base + e.rng.Float64()*2 - 1).Round(2)
}

func (e *ExecutionEngine) publishUpdate(ctx context.Context, order *orderdomain.Order) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishOrderUpdate(ctx, order); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish order update", "order_id", order.OrderID, "error", err)
	}
}

func (e *ExecutionEngine) publishReject(ctx context.Context, order *orderdomain.Order) {
	if e.publisher == nil {
		return
	}
	reason := order.RejectReason
	if reason == "" {
		reason = domain.RejectReasonFIX
	}
	if err := e.publisher.PublishOrderReject(ctx, order, reason, reason); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish order reject", "order_id", order.OrderID, "error", err)
	}
}
