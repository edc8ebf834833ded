package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
)

// GatewayProvider 通过 HTTP 对接外部支付网关。
// 网关契约：POST {base}/payments 返回 {"reference","payment_url"}，
// POST {base}/payouts 返回 {"reference"}。
type GatewayProvider struct {
	baseURL string
	client  *http.Client
}

// NewGatewayProvider 创建 HTTP 支付网关客户端
func NewGatewayProvider(baseURL string) *GatewayProvider {
	return &GatewayProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type paymentPayload struct {
	DepositID string `json:"deposit_id"`
	ClientID  string `json:"client_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Channel   string `json:"channel"`
}

type payoutPayload struct {
	WithdrawalID  string `json:"withdrawal_id"`
	ClientID      string `json:"client_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	AccountHolder string `json:"account_holder"`
}

type sessionReply struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
}

// CreatePayment 创建支付会话
func (p *GatewayProvider) CreatePayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentSession, error) {
	payload := paymentPayload{
		DepositID: req.DepositID,
		ClientID:  req.ClientID,
		Amount:    req.Amount.String(),
		Currency:  req.Currency,
		Channel:   req.Channel,
	}

	var reply sessionReply
	if err := p.post(ctx, "/payments", payload, &reply); err != nil {
		return nil, fmt.Errorf("创建支付会话失败: %w", err)
	}
	return &domain.PaymentSession{Reference: reply.Reference, PaymentURL: reply.PaymentURL}, nil
}

// Payout 发起提现打款
func (p *GatewayProvider) Payout(ctx context.Context, req *domain.PayoutRequest) (string, error) {
	payload := payoutPayload{
		WithdrawalID:  req.WithdrawalID,
		ClientID:      req.ClientID,
		Amount:        req.Amount.String(),
		Currency:      req.Currency,
		BankName:      req.BankName,
		BankAccount:   req.BankAccount,
		AccountHolder: req.AccountHolder,
	}

	var reply sessionReply
	if err := p.post(ctx, "/payouts", payload, &reply); err != nil {
		return "", fmt.Errorf("提现打款请求失败: %w", err)
	}
	return reply.Reference, nil
}

func (p *GatewayProvider) post(ctx context.Context, path string, payload any, reply any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(reply)
}
