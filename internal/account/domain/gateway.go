package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentRequest 表示充值支付请求参数。
type PaymentRequest struct {
	DepositID string
	ClientID  string
	Amount    decimal.Decimal
	Currency  string
	Channel   string
}

// PaymentSession 表示网关返回的支付会话。
type PaymentSession struct {
	Reference  string
	PaymentURL string
}

// PayoutRequest 表示提现打款请求参数。
type PayoutRequest struct {
	WithdrawalID  string
	ClientID      string
	Amount        decimal.Decimal
	Currency      string
	BankName      string
	BankAccount   string
	AccountHolder string
}

// PaymentProvider 定义充值/提现的支付网关端口。
// 具体实现由配置选择：mock 用于演示环境，gateway 对接外部 HTTP 网关。
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error)
	Payout(ctx context.Context, req *PayoutRequest) (string, error)
}
