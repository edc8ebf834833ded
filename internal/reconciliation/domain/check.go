// Package domain 对账上下文的领域模型：一致性规则、差异报告与运行档案。
// 对账是无状态的按需审计：订单侧核对 cum_qty 与成交之和、状态与数量的一致性；
// 持仓侧由成交独立推导净持仓，与持仓查询组件的聚合结果交叉比对。
package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// 订单侧差异原因码
const (
	ReasonCumQtyMismatch      = "CUM_QTY_MISMATCH"
	ReasonFilledCumNeQty      = "STATUS_FILLED_BUT_CUM_QTY_NE_QTY"
	ReasonPartialInconsistent = "STATUS_PARTIAL_INCONSISTENT"
	ReasonNotFilledCumEqQty   = "STATUS_NOT_FILLED_BUT_CUM_EQ_QTY"
)

// ReasonNetQtyMismatch 持仓侧差异归档时的原因码
const ReasonNetQtyMismatch = "NET_QTY_MISMATCH"

// epsilon 数值比对容差，差值严格大于该值才算差异
var epsilon = decimal.New(1, -9)

// PositionKey 持仓聚合键
type PositionKey struct {
	ClientID string
	Symbol   string
}

// OrderIssue 单笔订单的对账差异
type OrderIssue struct {
	OrderID string
	Status  orderdomain.OrderStatus
	Qty     decimal.Decimal
	CumQty  decimal.Decimal
	Reasons []string
}

// PositionIssue 单个持仓键的对账差异。CalcNetQty 为成交推导值，
// RepoNetQty 为持仓查询组件给出的值。
type PositionIssue struct {
	ClientID   string
	Symbol     string
	CalcNetQty decimal.Decimal
	RepoNetQty decimal.Decimal
}

// Report 一次对账的完整结果，OK 当且仅当两侧差异均为空
type Report struct {
	OK                    bool
	OrdersInconsistent    []OrderIssue
	PositionsInconsistent []PositionIssue
}

// NewReport 汇总两侧差异生成报告
func NewReport(orderIssues []OrderIssue, positionIssues []PositionIssue) *Report {
	return &Report{
		OK:                    len(orderIssues) == 0 && len(positionIssues) == 0,
		OrdersInconsistent:    orderIssues,
		PositionsInconsistent: positionIssues,
	}
}

// SumExecutions 按订单聚合成交数量
func SumExecutions(execs []*orderdomain.Execution) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, len(execs))
	for _, e := range execs {
		sums[e.OrderID] = sums[e.OrderID].Add(e.Quantity)
	}
	return sums
}

// CheckOrder 返回一笔订单的全部差异原因，完全一致时返回空。
// 多条规则可以同时命中，原因按固定顺序排列。
func CheckOrder(o *orderdomain.Order, execSum decimal.Decimal) []string {
	var reasons []string
	if o.CumQty.Sub(execSum).Abs().GreaterThan(epsilon) {
		reasons = append(reasons, ReasonCumQtyMismatch)
	}

	cumEqQty := o.CumQty.Sub(o.Quantity).Abs().LessThanOrEqual(epsilon)
	if o.Status == orderdomain.StatusFilled && !cumEqQty {
		reasons = append(reasons, ReasonFilledCumNeQty)
	}
	if o.Status == orderdomain.StatusPartiallyFilled &&
		(o.CumQty.Sign() <= 0 || o.CumQty.GreaterThanOrEqual(o.Quantity)) {
		reasons = append(reasons, ReasonPartialInconsistent)
	}
	if o.Status != orderdomain.StatusFilled && o.Status != orderdomain.StatusPartiallyFilled &&
		cumEqQty && o.Quantity.Sign() > 0 {
		reasons = append(reasons, ReasonNotFilledCumEqQty)
	}
	return reasons
}

// DeriveNetPositions 由成交关联订单方向推导 (client, symbol) 维度的净持仓，
// BUY 计正、SELL 计负。孤儿成交不参与推导，由订单侧核对兜底。
func DeriveNetPositions(orders []*orderdomain.Order, execs []*orderdomain.Execution) map[PositionKey]decimal.Decimal {
	byID := make(map[string]*orderdomain.Order, len(orders))
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	net := make(map[PositionKey]decimal.Decimal)
	for _, e := range execs {
		o, ok := byID[e.OrderID]
		if !ok {
			continue
		}
		key := PositionKey{ClientID: o.ClientID, Symbol: o.Symbol}
		if o.Side == orderdomain.SideBuy {
			net[key] = net[key].Add(e.Quantity)
		} else {
			net[key] = net[key].Sub(e.Quantity)
		}
	}
	return net
}

// ComparePositions 在两侧键集合的并集上逐一比对净持仓，缺失键按零处理。
// 返回按 (client, symbol) 排序的差异与参与比对的键数量。
func ComparePositions(calc, queried map[PositionKey]decimal.Decimal) ([]PositionIssue, int) {
	keys := make(map[PositionKey]struct{}, len(calc)+len(queried))
	for k := range calc {
		keys[k] = struct{}{}
	}
	for k := range queried {
		keys[k] = struct{}{}
	}

	issues := make([]PositionIssue, 0)
	for k := range keys {
		a := calc[k]
		b := queried[k]
		if a.Sub(b).Abs().GreaterThan(epsilon) {
			issues = append(issues, PositionIssue{
				ClientID:   k.ClientID,
				Symbol:     k.Symbol,
				CalcNetQty: a,
				RepoNetQty: b,
			})
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].ClientID == issues[j].ClientID {
			return issues[i].Symbol < issues[j].Symbol
		}
		return issues[i].ClientID < issues[j].ClientID
	})
	return issues, len(keys)
}
