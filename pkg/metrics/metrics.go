// Package metrics 提供 Prometheus helper，包含 OMS 核心链路的 counter/gauge/histogram
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/ordermanagement/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 订单创建计数
	OrdersCreatedTotal prometheus.Counter
	// 风控/引擎拒单计数（按原因）
	OrdersRejectedTotal *prometheus.CounterVec
	// 完全成交订单计数
	OrdersFilledTotal prometheus.Counter
	// 撤单完成计数
	OrdersCanceledTotal prometheus.Counter
	// 成交回报计数
	ExecutionsTotal prometheus.Counter

	// 指令队列深度
	CommandQueueDepth prometheus.Gauge
	// 指令入队失败计数（队列满）
	CommandQueueRejects prometheus.Counter

	// 事件总线发布计数
	EventsPublishedTotal prometheus.Counter
	// 推送侧丢弃事件计数（客户端队列满）
	EventsDroppedTotal prometheus.Counter

	// 对账执行计数
	ReconciliationRunsTotal prometheus.Counter
	// 对账发现的不一致计数
	ReconciliationIssuesTotal prometheus.Counter

	// 入金计数
	DepositsTotal prometheus.Counter
	// 出金计数
	WithdrawalsTotal prometheus.Counter

	// 开户申请计数
	ApplicationsTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		OrdersCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Total orders accepted for processing",
		}),
		OrdersRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total rejected orders by reason",
		}, []string{"reason"}),
		OrdersFilledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "orders_filled_total",
			Help:      "Total fully filled orders",
		}),
		OrdersCanceledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "orders_canceled_total",
			Help:      "Total canceled orders",
		}),
		ExecutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "executions_total",
			Help:      "Total execution reports",
		}),

		CommandQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "command_queue_depth",
			Help:      "Current depth of the engine command queue",
		}),
		CommandQueueRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "command_queue_rejects_total",
			Help:      "Total enqueue failures due to a full command queue",
		}),

		EventsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "events_published_total",
			Help:      "Total events published to the in-process bus",
		}),
		EventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "events_dropped_total",
			Help:      "Total events dropped by saturated client feeds",
		}),

		ReconciliationRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "reconciliation_runs_total",
			Help:      "Total reconciliation audits executed",
		}),
		ReconciliationIssuesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "reconciliation_issues_total",
			Help:      "Total inconsistencies reported by reconciliation audits",
		}),

		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "deposits_total",
			Help:      "Total deposit orders created",
		}),
		WithdrawalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "withdrawals_total",
			Help:      "Total withdrawal orders created",
		}),
		ApplicationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: serviceName,
			Name:      "onboarding_applications_total",
			Help:      "Total onboarding applications submitted",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersCreatedTotal,
		m.OrdersRejectedTotal,
		m.OrdersFilledTotal,
		m.OrdersCanceledTotal,
		m.ExecutionsTotal,
		m.CommandQueueDepth,
		m.CommandQueueRejects,
		m.EventsPublishedTotal,
		m.EventsDroppedTotal,
		m.ReconciliationRunsTotal,
		m.ReconciliationIssuesTotal,
		m.DepositsTotal,
		m.WithdrawalsTotal,
		m.ApplicationsTotal,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
