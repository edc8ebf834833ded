package domain

import (
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/idgen"
)

// RunStatus 对账运行状态
type RunStatus int8

const (
	RunRunning RunStatus = iota + 1
	RunCompleted
	RunFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunRunning:
		return "RUNNING"
	case RunCompleted:
		return "COMPLETED"
	case RunFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IssueKind 归档差异的类别
type IssueKind string

const (
	IssueOrder    IssueKind = "ORDER"
	IssuePosition IssueKind = "POSITION"
)

// Issue 归档的单条差异记录，订单差异每条原因一行，持仓差异每个键一行
type Issue struct {
	ID        uint
	RunID     string
	Kind      IssueKind
	RefID     string
	Reason    string
	Detail    string
	CreatedAt time.Time
}

// Run 一次对账运行的归档记录。对账本身同步执行，
// 归档只在结束时落一次，供事后审计与趋势观察。
type Run struct {
	ID               uint
	RunID            string
	Status           RunStatus
	CheckedOrders    int
	CheckedPositions int
	IssueCount       int
	Error            string
	StartedAt        time.Time
	FinishedAt       time.Time
	Issues           []Issue
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRun 创建一条 RUNNING 状态的运行记录
func NewRun() *Run {
	return &Run{
		RunID:     fmt.Sprintf("RECON-%d", idgen.GenID()),
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
}

// Complete 以报告内容归档运行结果
func (r *Run) Complete(report *Report) {
	for _, oi := range report.OrdersInconsistent {
		for _, reason := range oi.Reasons {
			r.Issues = append(r.Issues, Issue{
				RunID:  r.RunID,
				Kind:   IssueOrder,
				RefID:  oi.OrderID,
				Reason: reason,
				Detail: fmt.Sprintf("status=%s qty=%s cum_qty=%s", oi.Status, oi.Qty, oi.CumQty),
			})
		}
	}
	for _, pi := range report.PositionsInconsistent {
		r.Issues = append(r.Issues, Issue{
			RunID:  r.RunID,
			Kind:   IssuePosition,
			RefID:  pi.ClientID + "/" + pi.Symbol,
			Reason: ReasonNetQtyMismatch,
			Detail: fmt.Sprintf("calc=%s repo=%s", pi.CalcNetQty, pi.RepoNetQty),
		})
	}
	r.IssueCount = len(r.Issues)
	r.Status = RunCompleted
	r.FinishedAt = time.Now()
}

// Fail 以失败原因归档运行结果
func (r *Run) Fail(cause string) {
	r.Error = cause
	r.Status = RunFailed
	r.FinishedAt = time.Now()
}

// Clone 深拷贝，内存仓储用
func (r *Run) Clone() *Run {
	c := *r
	c.Issues = make([]Issue, len(r.Issues))
	copy(c.Issues, r.Issues)
	return &c
}
