package mysql

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RiskLimitModel 风控限额表模型。(client_id, symbol) 唯一，
// symbol 空串表示客户级默认限额。
type RiskLimitModel struct {
	gorm.Model
	ClientID     string          `gorm:"column:client_id;type:varchar(32);not null;uniqueIndex:uk_client_symbol,priority:1"`
	Symbol       string          `gorm:"column:symbol;type:varchar(20);not null;default:'';uniqueIndex:uk_client_symbol,priority:2"`
	MaxNotional  decimal.Decimal `gorm:"column:max_notional;type:decimal(32,18);not null;default:0"`
	MaxOrderSize decimal.Decimal `gorm:"column:max_order_size;type:decimal(32,18);not null;default:0"`
	TradingHours string          `gorm:"column:trading_hours;type:varchar(16);not null;default:''"`
	Blocked      bool            `gorm:"column:blocked;not null;default:false"`
}

// TableName 指定表名
func (RiskLimitModel) TableName() string {
	return "risk_limits"
}
