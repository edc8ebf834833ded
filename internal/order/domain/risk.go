package domain

import "context"

// RiskViolation 风控违规，Code 直接用作订单拒绝原因
type RiskViolation struct {
	Code    string
	Message string
}

// RiskGate 下单与改单前的风控校验口。
// 按固定顺序检查并短路，返回第一条违规；全部通过返回 (nil, nil)。
type RiskGate interface {
	Check(ctx context.Context, order *Order) (*RiskViolation, error)
}
