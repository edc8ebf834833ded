package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderModel 订单数据库模型
type OrderModel struct {
	gorm.Model
	OrderID      string              `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null"`
	ClientID     string              `gorm:"column:client_id;type:varchar(32);index;not null"`
	Symbol       string              `gorm:"column:symbol;type:varchar(20);index;not null"`
	Side         string              `gorm:"column:side;type:varchar(8);not null"`
	Type         string              `gorm:"column:type;type:varchar(8);not null"`
	Quantity     decimal.Decimal     `gorm:"column:quantity;type:decimal(32,18);not null"`
	Price        decimal.NullDecimal `gorm:"column:price;type:decimal(32,18)"`
	TimeInForce  string              `gorm:"column:time_in_force;type:varchar(8);not null;default:'GTC'"`
	Status       string              `gorm:"column:status;type:varchar(20);not null;index"`
	CumQty       decimal.Decimal     `gorm:"column:cum_qty;type:decimal(32,18);not null;default:0"`
	AvgPx        decimal.NullDecimal `gorm:"column:avg_px;type:decimal(32,18)"`
	RejectReason string              `gorm:"column:reject_reason;type:varchar(255)"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// ExecutionModel 成交数据库模型
type ExecutionModel struct {
	gorm.Model
	ExecID     string          `gorm:"column:exec_id;type:varchar(32);uniqueIndex;not null"`
	OrderID    string          `gorm:"column:order_id;type:varchar(32);index;not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null"`
	ExecutedAt time.Time       `gorm:"column:executed_at;type:datetime(3);not null;index"`
}

func (ExecutionModel) TableName() string {
	return "executions"
}
