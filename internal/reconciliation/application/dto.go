package application

import (
	"time"

	"github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
)

// ReportResponse 对账报告。顶层数组键沿用审计输出的下划线命名，
// 金额字段序列化为字符串避免精度损失。
type ReportResponse struct {
	RunID                 string                   `json:"runId"`
	OK                    bool                     `json:"ok"`
	OrdersInconsistent    []*OrderIssueResponse    `json:"orders_inconsistent"`
	PositionsInconsistent []*PositionIssueResponse `json:"positions_inconsistent"`
}

// OrderIssueResponse 订单侧差异项
type OrderIssueResponse struct {
	OrderID string   `json:"orderId"`
	Status  string   `json:"status"`
	Qty     string   `json:"qty"`
	CumQty  string   `json:"cumQty"`
	Reasons []string `json:"reasons"`
}

// PositionIssueResponse 持仓侧差异项
type PositionIssueResponse struct {
	ClientID   string `json:"clientId"`
	Symbol     string `json:"symbol"`
	CalcNetQty string `json:"calcNetQty"`
	RepoNetQty string `json:"repoNetQty"`
}

// NewReportResponse 由领域报告生成响应
func NewReportResponse(runID string, report *domain.Report) *ReportResponse {
	resp := &ReportResponse{
		RunID:                 runID,
		OK:                    report.OK,
		OrdersInconsistent:    make([]*OrderIssueResponse, 0, len(report.OrdersInconsistent)),
		PositionsInconsistent: make([]*PositionIssueResponse, 0, len(report.PositionsInconsistent)),
	}
	for _, oi := range report.OrdersInconsistent {
		resp.OrdersInconsistent = append(resp.OrdersInconsistent, &OrderIssueResponse{
			OrderID: oi.OrderID,
			Status:  string(oi.Status),
			Qty:     oi.Qty.String(),
			CumQty:  oi.CumQty.String(),
			Reasons: oi.Reasons,
		})
	}
	for _, pi := range report.PositionsInconsistent {
		resp.PositionsInconsistent = append(resp.PositionsInconsistent, &PositionIssueResponse{
			ClientID:   pi.ClientID,
			Symbol:     pi.Symbol,
			CalcNetQty: pi.CalcNetQty.String(),
			RepoNetQty: pi.RepoNetQty.String(),
		})
	}
	return resp
}

// RunSummary 运行档案列表项
type RunSummary struct {
	RunID            string `json:"runId"`
	Status           string `json:"status"`
	CheckedOrders    int    `json:"checkedOrders"`
	CheckedPositions int    `json:"checkedPositions"`
	IssueCount       int    `json:"issueCount"`
	StartedAt        string `json:"startedAt"`
	FinishedAt       string `json:"finishedAt"`
}

// NewRunSummary 由运行档案生成列表项
func NewRunSummary(run *domain.Run) *RunSummary {
	return &RunSummary{
		RunID:            run.RunID,
		Status:           run.Status.String(),
		CheckedOrders:    run.CheckedOrders,
		CheckedPositions: run.CheckedPositions,
		IssueCount:       run.IssueCount,
		StartedAt:        run.StartedAt.Format(time.RFC3339),
		FinishedAt:       run.FinishedAt.Format(time.RFC3339),
	}
}

// RunResponse 运行档案详情，含归档差异明细
type RunResponse struct {
	RunID            string           `json:"runId"`
	Status           string           `json:"status"`
	CheckedOrders    int              `json:"checkedOrders"`
	CheckedPositions int              `json:"checkedPositions"`
	IssueCount       int              `json:"issueCount"`
	Error            string           `json:"error,omitempty"`
	StartedAt        string           `json:"startedAt"`
	FinishedAt       string           `json:"finishedAt"`
	Issues           []*IssueResponse `json:"issues"`
}

// IssueResponse 归档差异项
type IssueResponse struct {
	Kind   string `json:"kind"`
	RefID  string `json:"refId"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// NewRunResponse 由运行档案生成详情响应
func NewRunResponse(run *domain.Run) *RunResponse {
	resp := &RunResponse{
		RunID:            run.RunID,
		Status:           run.Status.String(),
		CheckedOrders:    run.CheckedOrders,
		CheckedPositions: run.CheckedPositions,
		IssueCount:       run.IssueCount,
		Error:            run.Error,
		StartedAt:        run.StartedAt.Format(time.RFC3339),
		FinishedAt:       run.FinishedAt.Format(time.RFC3339),
		Issues:           make([]*IssueResponse, 0, len(run.Issues)),
	}
	for _, issue := range run.Issues {
		resp.Issues = append(resp.Issues, &IssueResponse{
			Kind:   string(issue.Kind),
			RefID:  issue.RefID,
			Reason: issue.Reason,
			Detail: issue.Detail,
		})
	}
	return resp
}
