// Package payment 支付网关端口的两种实现：演示环境的 mock 与外部 HTTP 网关。
package payment

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
)

// MockProvider 演示环境支付网关：不出网，立即返回确定性的会话引用。
type MockProvider struct{}

// NewMockProvider 创建 mock 支付网关
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// CreatePayment 返回以充值单号派生的支付会话
func (p *MockProvider) CreatePayment(_ context.Context, req *domain.PaymentRequest) (*domain.PaymentSession, error) {
	return &domain.PaymentSession{
		Reference:  fmt.Sprintf("MOCK-%s", req.DepositID),
		PaymentURL: fmt.Sprintf("https://pay.example.com/checkout/%s", req.DepositID),
	}, nil
}

// Payout 返回以提现单号派生的打款引用
func (p *MockProvider) Payout(_ context.Context, req *domain.PayoutRequest) (string, error) {
	return fmt.Sprintf("MOCK-TRF-%s", req.WithdrawalID), nil
}
