// 生成摘要：对账应用服务。全量拉取订单与成交做一致性审计，
// 将成交推导的净持仓与持仓查询组件交叉比对，生成报告并归档运行记录。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

// ReconciliationService 对账应用服务
type ReconciliationService struct {
	orders     orderdomain.OrderRepository
	executions orderdomain.ExecutionRepository
	positions  orderdomain.PositionQuery
	runs       domain.RunRepository
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewReconciliationService 创建对账应用服务
func NewReconciliationService(
	orders orderdomain.OrderRepository,
	executions orderdomain.ExecutionRepository,
	positions orderdomain.PositionQuery,
	runs domain.RunRepository,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ReconciliationService {
	return &ReconciliationService{
		orders:     orders,
		executions: executions,
		positions:  positions,
		runs:       runs,
		logger:     logger.With("module", "reconciliation_service"),
		metrics:    m,
	}
}

// Reconcile 同步执行一次全量对账并返回报告。
// 报告是主产物，运行档案是旁路，归档失败只记日志不影响报告返回。
func (s *ReconciliationService) Reconcile(ctx context.Context) (*ReportResponse, error) {
	run := domain.NewRun()

	orders, err := s.orders.List(ctx, orderdomain.OrderFilter{})
	if err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("对账拉取订单失败: %w", err))
	}
	execs, err := s.executions.ListAll(ctx)
	if err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("对账拉取成交失败: %w", err))
	}

	sums := domain.SumExecutions(execs)
	orderIssues := make([]domain.OrderIssue, 0)
	for _, o := range orders {
		reasons := domain.CheckOrder(o, sums[o.OrderID])
		if len(reasons) == 0 {
			continue
		}
		orderIssues = append(orderIssues, domain.OrderIssue{
			OrderID: o.OrderID,
			Status:  o.Status,
			Qty:     o.Quantity,
			CumQty:  o.CumQty,
			Reasons: reasons,
		})
	}

	calc := domain.DeriveNetPositions(orders, execs)
	queried := make(map[domain.PositionKey]decimal.Decimal)
	for _, clientID := range clientsOf(calc) {
		positions, err := s.positions.ByClient(ctx, clientID)
		if err != nil {
			return nil, s.failRun(ctx, run, fmt.Errorf("对账查询持仓失败: %w", err))
		}
		for _, p := range positions {
			queried[domain.PositionKey{ClientID: p.ClientID, Symbol: p.Symbol}] = p.NetQty
		}
	}
	positionIssues, compared := domain.ComparePositions(calc, queried)

	report := domain.NewReport(orderIssues, positionIssues)
	run.CheckedOrders = len(orders)
	run.CheckedPositions = compared
	run.Complete(report)
	s.archive(ctx, run)

	if s.metrics != nil {
		s.metrics.ReconciliationRunsTotal.Inc()
		s.metrics.ReconciliationIssuesTotal.Add(float64(run.IssueCount))
	}
	if report.OK {
		s.logger.InfoContext(ctx, "对账完成",
			"run_id", run.RunID, "orders", run.CheckedOrders, "positions", run.CheckedPositions)
	} else {
		s.logger.WarnContext(ctx, "对账发现差异",
			"run_id", run.RunID,
			"order_issues", len(report.OrdersInconsistent),
			"position_issues", len(report.PositionsInconsistent))
	}

	return NewReportResponse(run.RunID, report), nil
}

// GetRun 查询单次运行档案，含差异明细
func (s *ReconciliationService) GetRun(ctx context.Context, runID string) (*RunResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("查询对账运行失败: %w", err)
	}
	if run == nil {
		return nil, domain.ErrRunNotFound
	}
	return NewRunResponse(run), nil
}

// ListRuns 按时间倒序列出最近的运行档案
func (s *ReconciliationService) ListRuns(ctx context.Context, limit int) ([]*RunSummary, error) {
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("查询对账运行列表失败: %w", err)
	}
	summaries := make([]*RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, NewRunSummary(run))
	}
	return summaries, nil
}

func (s *ReconciliationService) failRun(ctx context.Context, run *domain.Run, err error) error {
	run.Fail(err.Error())
	s.archive(ctx, run)
	return err
}

func (s *ReconciliationService) archive(ctx context.Context, run *domain.Run) {
	if err := s.runs.SaveRun(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "对账运行归档失败", "run_id", run.RunID, "error", err)
	}
}

// clientsOf 提取推导持仓涉及的客户并排序，保证查询顺序稳定
func clientsOf(calc map[domain.PositionKey]decimal.Decimal) []string {
	seen := make(map[string]struct{}, len(calc))
	ids := make([]string, 0, len(calc))
	for k := range calc {
		if _, ok := seen[k.ClientID]; ok {
			continue
		}
		seen[k.ClientID] = struct{}{}
		ids = append(ids, k.ClientID)
	}
	sort.Strings(ids)
	return ids
}
