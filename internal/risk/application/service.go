// 生成摘要：风控应用服务：限额维护与下单前校验，实现订单侧的风控闸口。
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/risk/domain"
)

// RiskService 限额管理与交易前校验。
type RiskService struct {
	limits domain.RiskLimitRepository
	prices domain.ReferencePriceSource
	logger *slog.Logger
	now    func() time.Time
}

// NewRiskService 创建风控服务。prices 可为 nil，此时 MARKET 单一律缺参考价。
func NewRiskService(limits domain.RiskLimitRepository, prices domain.ReferencePriceSource, logger *slog.Logger) *RiskService {
	return &RiskService{
		limits: limits,
		prices: prices,
		logger: logger.With("module", "risk_service"),
		now:    time.Now,
	}
}

// Check 下单/改单前的风控闸口：解析限额（符号级 -> 客户级 -> 宽松默认），
// MARKET 单补齐参考价后跑完整校验管线。
// 参考价查询失败按缺参考价处理，宁可拒单也不放行。
func (s *RiskService) Check(ctx context.Context, order *orderdomain.Order) (*orderdomain.RiskViolation, error) {
	limit, err := s.resolveLimit(ctx, order.ClientID, order.Symbol)
	if err != nil {
		return nil, err
	}

	var ref decimal.NullDecimal
	if order.Type == orderdomain.TypeMarket && !order.Price.Valid && s.prices != nil {
		ref, err = s.prices.ReferencePrice(ctx, order.Symbol)
		if err != nil {
			s.logger.WarnContext(ctx, "reference price lookup failed",
				"symbol", order.Symbol, "error", err)
			ref = decimal.NullDecimal{}
		}
	}

	ok, reason := domain.Validate(domain.CheckRequest{
		ClientID: order.ClientID,
		Symbol:   order.Symbol,
		Type:     string(order.Type),
		Qty:      order.Quantity,
		Price:    order.Price,
	}, limit, ref, s.now())
	if ok {
		return nil, nil
	}
	return &orderdomain.RiskViolation{Code: reason, Message: violationMessage(reason)}, nil
}

func (s *RiskService) resolveLimit(ctx context.Context, clientID, symbol string) (*domain.RiskLimit, error) {
	limit, err := s.limits.FindByClientAndSymbol(ctx, clientID, symbol)
	if err != nil {
		return nil, err
	}
	if limit == nil {
		limit = domain.PermissiveDefault(clientID, symbol)
	}
	return limit, nil
}

// UpsertLimit 新建或覆盖 (client, symbol) 维度的限额。
func (s *RiskService) UpsertLimit(ctx context.Context, req UpsertLimitRequest) (*LimitResponse, error) {
	limit := &domain.RiskLimit{
		ClientID:     req.ClientID,
		Symbol:       req.Symbol,
		MaxNotional:  req.MaxNotional,
		MaxOrderSize: req.MaxOrderSize,
		TradingHours: req.TradingHours,
		Blocked:      req.Blocked,
	}
	if err := s.limits.Upsert(ctx, limit); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "risk limit upserted",
		"client_id", limit.ClientID,
		"symbol", limit.Symbol,
		"blocked", limit.Blocked)
	return NewLimitResponse(limit), nil
}

// ListLimits 列出限额，clientID 为空时返回全部。
func (s *RiskService) ListLimits(ctx context.Context, clientID string) ([]*LimitResponse, error) {
	limits, err := s.limits.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]*LimitResponse, 0, len(limits))
	for _, l := range limits {
		out = append(out, NewLimitResponse(l))
	}
	return out, nil
}

func violationMessage(code string) string {
	switch code {
	case domain.ReasonInvalidQty:
		return "quantity must be positive"
	case domain.ReasonPriceRequired:
		return "limit orders require a price"
	case domain.ReasonPriceNotAllowed:
		return "market orders must not carry a price"
	case domain.ReasonSymbolBlocked:
		return "symbol is blocked for this client"
	case domain.ReasonOutsideHours:
		return "outside configured trading hours"
	case domain.ReasonMissingRefPrice:
		return "no reference price available for market order"
	case domain.ReasonNotionalExceeded:
		return "order notional exceeds the configured limit"
	case domain.ReasonOrderSizeExceeded:
		return "order size exceeds the configured limit"
	default:
		return code
	}
}
