package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"
)

// Execution 成交记录，订单的每一笔（部分）成交追加一条，只增不改。
// 全部成交量之和必须等于所属订单的 cum_qty，对账引擎以此为核心校验。
type Execution struct {
	ID         uint            `json:"id"`
	ExecID     string          `json:"exec_id"`
	OrderID    string          `json:"order_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewExecution 创建成交记录
func NewExecution(orderID string, qty, px decimal.Decimal) *Execution {
	return &Execution{
		ExecID:     fmt.Sprintf("EXE-%d", idgen.GenID()),
		OrderID:    orderID,
		Quantity:   qty,
		Price:      px,
		ExecutedAt: time.Now(),
	}
}
