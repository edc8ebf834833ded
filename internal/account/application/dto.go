package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
)

// CreateDepositRequest 充值请求。currency 缺省 USD，channel 缺省 card。
type CreateDepositRequest struct {
	ClientID string          `json:"clientId"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
	Channel  string          `json:"channel"`
}

// ConfirmDepositRequest 充值确认请求（网关回调）。
// confirmedAmount 缺省表示按下单金额入账。
type ConfirmDepositRequest struct {
	ProviderRef     string           `json:"providerRef"`
	ConfirmedAmount *decimal.Decimal `json:"confirmedAmount"`
}

// CreateWithdrawalRequest 提现请求
type CreateWithdrawalRequest struct {
	ClientID      string          `json:"clientId"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency"`
	BankName      string          `json:"bankName"`
	BankAccount   string          `json:"bankAccount"`
	AccountHolder string          `json:"accountHolder"`
}

// ReviewWithdrawalRequest 提现复核决定
type ReviewWithdrawalRequest struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

// DepositResponse 充值订单响应，金额序列化为字符串
type DepositResponse struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"clientId"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	Channel         string  `json:"channel"`
	Status          string  `json:"status"`
	ProviderRef     *string `json:"providerRef"`
	PaymentURL      *string `json:"paymentUrl"`
	ConfirmedAmount *string `json:"confirmedAmount"`
	FailReason      *string `json:"failReason"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// NewDepositResponse 由充值订单聚合生成响应
func NewDepositResponse(d *domain.DepositOrder) *DepositResponse {
	resp := &DepositResponse{
		ID:        d.DepositID,
		ClientID:  d.ClientID,
		Amount:    d.Amount.String(),
		Currency:  d.Currency,
		Channel:   d.Channel,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
	if d.ProviderRef != "" {
		ref := d.ProviderRef
		resp.ProviderRef = &ref
	}
	if d.PaymentURL != "" {
		u := d.PaymentURL
		resp.PaymentURL = &u
	}
	if d.ConfirmedAmount.Valid {
		amt := d.ConfirmedAmount.Decimal.String()
		resp.ConfirmedAmount = &amt
	}
	if d.FailReason != "" {
		reason := d.FailReason
		resp.FailReason = &reason
	}
	return resp
}

// WithdrawalResponse 提现订单响应
type WithdrawalResponse struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"clientId"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	BankName      string  `json:"bankName"`
	BankAccount   string  `json:"bankAccount"`
	AccountHolder string  `json:"accountHolder"`
	Status        string  `json:"status"`
	ProviderRef   *string `json:"providerRef"`
	ReviewedBy    *string `json:"reviewedBy"`
	RejectReason  *string `json:"rejectReason"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// NewWithdrawalResponse 由提现订单聚合生成响应
func NewWithdrawalResponse(w *domain.WithdrawalOrder) *WithdrawalResponse {
	resp := &WithdrawalResponse{
		ID:            w.WithdrawalID,
		ClientID:      w.ClientID,
		Amount:        w.Amount.String(),
		Currency:      w.Currency,
		BankName:      w.BankName,
		BankAccount:   w.BankAccount,
		AccountHolder: w.AccountHolder,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     w.UpdatedAt.Format(time.RFC3339),
	}
	if w.ProviderRef != "" {
		ref := w.ProviderRef
		resp.ProviderRef = &ref
	}
	if w.ReviewedBy != "" {
		by := w.ReviewedBy
		resp.ReviewedBy = &by
	}
	if w.RejectReason != "" {
		reason := w.RejectReason
		resp.RejectReason = &reason
	}
	return resp
}

// AccountResponse 账户余额响应
type AccountResponse struct {
	ClientID  string `json:"clientId"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Frozen    string `json:"frozen"`
}

// NewAccountResponse 由账户聚合生成响应
func NewAccountResponse(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ClientID:  a.ClientID,
		Currency:  a.Currency,
		Balance:   a.Balance.String(),
		Available: a.Available.String(),
		Frozen:    a.Frozen.String(),
	}
}

// DashboardResponse 客户资金总览。withdrawable 为各账户可用余额之和，
// 平台以单一结算货币运营时等于可提现金额。
type DashboardResponse struct {
	ClientID     string             `json:"clientId"`
	Withdrawable string             `json:"withdrawable"`
	Accounts     []*AccountResponse `json:"accounts"`
}
