package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 拒绝原因代码，落到订单的 reject_reason 并出现在 ORDER_REJECT 事件里。
const (
	ReasonInvalidQty        = "INVALID_QTY"
	ReasonPriceRequired     = "PRICE_REQUIRED"
	ReasonPriceNotAllowed   = "PRICE_NOT_ALLOWED"
	ReasonSymbolBlocked     = "SYMBOL_BLOCKED"
	ReasonOutsideHours      = "OUTSIDE_TRADING_HOURS"
	ReasonMissingRefPrice   = "MISSING_REFERENCE_PRICE"
	ReasonNotionalExceeded  = "NOTIONAL_LIMIT_EXCEEDED"
	ReasonOrderSizeExceeded = "ORDER_SIZE_LIMIT_EXCEEDED"
)

// CheckRequest 待校验的订单要素，与订单聚合解耦。
type CheckRequest struct {
	ClientID string
	Symbol   string
	Type     string // MARKET | LIMIT
	Qty      decimal.Decimal
	Price    decimal.NullDecimal
}

// Validate 按固定顺序短路执行交易前检查，
// 返回 (false, 第一个未通过的原因代码) 或 (true, "")。
// refPrice 仅在 MARKET 单估算名义价值时使用；now 由调用方注入以便测试。
func Validate(req CheckRequest, limit *RiskLimit, refPrice decimal.NullDecimal, now time.Time) (bool, string) {
	if req.Qty.Sign() <= 0 {
		return false, ReasonInvalidQty
	}

	switch req.Type {
	case "LIMIT":
		if !req.Price.Valid {
			return false, ReasonPriceRequired
		}
	case "MARKET":
		if req.Price.Valid {
			return false, ReasonPriceNotAllowed
		}
	}

	if limit.Blocked {
		return false, ReasonSymbolBlocked
	}

	if !inTradingHours(limit.TradingHours, now) {
		return false, ReasonOutsideHours
	}

	effective := req.Price
	if !effective.Valid {
		effective = refPrice
	}
	if !effective.Valid || effective.Decimal.Sign() <= 0 {
		return false, ReasonMissingRefPrice
	}

	if limit.MaxNotional.Sign() > 0 {
		notional := req.Qty.Mul(effective.Decimal)
		if notional.GreaterThan(limit.MaxNotional) {
			return false, ReasonNotionalExceeded
		}
	}

	if limit.MaxOrderSize.Sign() > 0 && req.Qty.GreaterThan(limit.MaxOrderSize) {
		return false, ReasonOrderSizeExceeded
	}

	return true, ""
}

// inTradingHours 判断 now 的时分是否落在 "HH:MM-HH:MM" 窗口内（含两端）。
// 空串表示不限时段；格式非法的窗口视为永不开放，宁可错杀。
// 不处理跨天窗口（如 22:00-02:00），起点晚于终点时同样永不匹配。
func inTradingHours(window string, now time.Time) bool {
	if window == "" {
		return true
	}
	start, end, ok := parseTradingHours(window)
	if !ok {
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= start && minutes <= end
}

func parseTradingHours(window string) (int, int, bool) {
	parts := strings.Split(window, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// parseClock "HH:MM" 转为当天第几分钟；"24:00" 作为日终哨兵值合法。
func parseClock(s string) (int, bool) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, false
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return h*60 + m, true
}
