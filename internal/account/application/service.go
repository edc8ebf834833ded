// 生成摘要：账户应用服务。充值经支付网关确认后入账，
// 提现在创建时冻结可用余额，复核通过打款、拒绝或撤回时解冻。
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

const (
	defaultCurrency = "USD"
	defaultChannel  = "card"
)

// AccountService 账户应用服务
type AccountService struct {
	accounts    domain.AccountRepository
	deposits    domain.DepositRepository
	withdrawals domain.WithdrawalRepository
	provider    domain.PaymentProvider
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewAccountService 创建账户应用服务
func NewAccountService(
	accounts domain.AccountRepository,
	deposits domain.DepositRepository,
	withdrawals domain.WithdrawalRepository,
	provider domain.PaymentProvider,
	logger *slog.Logger,
	m *metrics.Metrics,
) *AccountService {
	return &AccountService{
		accounts:    accounts,
		deposits:    deposits,
		withdrawals: withdrawals,
		provider:    provider,
		logger:      logger.With("module", "account_service"),
		metrics:     m,
	}
}

// CreateDeposit 创建充值订单并向支付网关申请支付会话
func (s *AccountService) CreateDeposit(ctx context.Context, req CreateDepositRequest) (*DepositResponse, error) {
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.Amount)
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	channel := req.Channel
	if channel == "" {
		channel = defaultChannel
	}

	deposit := domain.NewDepositOrder(req.ClientID, req.Amount, currency, channel)

	session, err := s.provider.CreatePayment(ctx, &domain.PaymentRequest{
		DepositID: deposit.DepositID,
		ClientID:  deposit.ClientID,
		Amount:    deposit.Amount,
		Currency:  deposit.Currency,
		Channel:   deposit.Channel,
	})
	if err != nil {
		return nil, fmt.Errorf("充值下单失败: %w", err)
	}
	deposit.ProviderRef = session.Reference
	deposit.PaymentURL = session.PaymentURL

	if err := s.deposits.Save(ctx, deposit); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DepositsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "充值订单已创建",
		"deposit_id", deposit.DepositID,
		"client_id", deposit.ClientID,
		"amount", deposit.Amount.String(),
		"currency", deposit.Currency)
	return NewDepositResponse(deposit), nil
}

// ConfirmDeposit 网关确认到账。重复确认是幂等 no-op。
func (s *AccountService) ConfirmDeposit(ctx context.Context, clientID, depositID string, req ConfirmDepositRequest) (*DepositResponse, error) {
	deposit, err := s.deposits.Get(ctx, clientID, depositID)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	if deposit.Status == domain.DepositStatusConfirmed || deposit.Status == domain.DepositStatusCompleted {
		return NewDepositResponse(deposit), nil
	}

	var confirmed decimal.NullDecimal
	if req.ConfirmedAmount != nil {
		if req.ConfirmedAmount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.ConfirmedAmount)
		}
		confirmed = decimal.NullDecimal{Decimal: *req.ConfirmedAmount, Valid: true}
	}

	if err := deposit.Confirm(ctx, req.ProviderRef, confirmed); err != nil {
		return nil, err
	}
	if err := s.deposits.Update(ctx, deposit); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "充值已确认",
		"deposit_id", deposit.DepositID,
		"credit_amount", deposit.CreditAmount().String())
	return NewDepositResponse(deposit), nil
}

// CompleteDeposit 充值入账：订单完成与账户贷记在同一事务内落库。
// 重复完成是幂等 no-op。
func (s *AccountService) CompleteDeposit(ctx context.Context, clientID, depositID string) (*DepositResponse, error) {
	deposit, err := s.deposits.Get(ctx, clientID, depositID)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	if deposit.Status == domain.DepositStatusCompleted {
		return NewDepositResponse(deposit), nil
	}

	err = s.deposits.WithTx(ctx, func(txCtx context.Context) error {
		if err := deposit.Complete(txCtx); err != nil {
			return err
		}

		account, err := s.accounts.Get(txCtx, deposit.ClientID, deposit.Currency)
		if err != nil {
			return err
		}
		if account == nil {
			account = domain.NewAccount(deposit.ClientID, deposit.Currency)
		}
		if err := account.Credit(deposit.CreditAmount()); err != nil {
			return err
		}
		if err := s.accounts.Save(txCtx, account); err != nil {
			return err
		}
		return s.deposits.Update(txCtx, deposit)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "充值入账完成",
		"deposit_id", deposit.DepositID,
		"client_id", deposit.ClientID,
		"credit_amount", deposit.CreditAmount().String())
	return NewDepositResponse(deposit), nil
}

// CancelDeposit 取消未确认的充值。重复取消是幂等 no-op。
func (s *AccountService) CancelDeposit(ctx context.Context, clientID, depositID string) (*DepositResponse, error) {
	deposit, err := s.deposits.Get(ctx, clientID, depositID)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	if deposit.Status == domain.DepositStatusCanceled {
		return NewDepositResponse(deposit), nil
	}

	if err := deposit.Cancel(ctx); err != nil {
		return nil, err
	}
	if err := s.deposits.Update(ctx, deposit); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "充值已取消", "deposit_id", deposit.DepositID)
	return NewDepositResponse(deposit), nil
}

// GetDeposit 查询客户充值订单
func (s *AccountService) GetDeposit(ctx context.Context, clientID, depositID string) (*DepositResponse, error) {
	deposit, err := s.deposits.Get(ctx, clientID, depositID)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	return NewDepositResponse(deposit), nil
}

// ListDeposits 按创建时间倒序分页查询客户充值订单
func (s *AccountService) ListDeposits(ctx context.Context, clientID string, limit, offset int) ([]*DepositResponse, error) {
	deposits, err := s.deposits.ListByClient(ctx, clientID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	out := make([]*DepositResponse, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, NewDepositResponse(d))
	}
	return out, nil
}

// CreateWithdrawal 创建提现订单：冻结可用余额并自动进入复核。
func (s *AccountService) CreateWithdrawal(ctx context.Context, req CreateWithdrawalRequest) (*WithdrawalResponse, error) {
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.Amount)
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	withdrawal := domain.NewWithdrawalOrder(req.ClientID, req.Amount, currency, req.BankName, req.BankAccount, req.AccountHolder)

	err := s.withdrawals.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.Get(txCtx, req.ClientID, currency)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("%w: available 0, requested %s", domain.ErrInsufficientAvailable, req.Amount)
		}
		if err := account.Freeze(withdrawal.Amount); err != nil {
			return err
		}
		if err := s.accounts.Save(txCtx, account); err != nil {
			return err
		}

		if err := s.withdrawals.Save(txCtx, withdrawal); err != nil {
			return err
		}
		if err := withdrawal.StartReview(txCtx); err != nil {
			return err
		}
		return s.withdrawals.Update(txCtx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.WithdrawalsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "提现订单已创建",
		"withdrawal_id", withdrawal.WithdrawalID,
		"client_id", withdrawal.ClientID,
		"amount", withdrawal.Amount.String(),
		"currency", withdrawal.Currency)
	return NewWithdrawalResponse(withdrawal), nil
}

// CompleteWithdrawal 复核通过并打款：先请求网关出款，
// 再在同一事务内扣减冻结余额并落终态。重复完成是幂等 no-op。
func (s *AccountService) CompleteWithdrawal(ctx context.Context, clientID, withdrawalID string, req ReviewWithdrawalRequest) (*WithdrawalResponse, error) {
	withdrawal, err := s.withdrawals.Get(ctx, clientID, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, domain.ErrWithdrawalNotFound
	}
	if withdrawal.Status == domain.WithdrawalStatusCompleted {
		return NewWithdrawalResponse(withdrawal), nil
	}
	if withdrawal.Status != domain.WithdrawalStatusReviewing {
		return nil, fmt.Errorf("%w: status %s", domain.ErrInvalidTransition, withdrawal.Status)
	}

	providerRef, err := s.provider.Payout(ctx, &domain.PayoutRequest{
		WithdrawalID:  withdrawal.WithdrawalID,
		ClientID:      withdrawal.ClientID,
		Amount:        withdrawal.Amount,
		Currency:      withdrawal.Currency,
		BankName:      withdrawal.BankName,
		BankAccount:   withdrawal.BankAccount,
		AccountHolder: withdrawal.AccountHolder,
	})
	if err != nil {
		return nil, fmt.Errorf("提现打款失败: %w", err)
	}

	err = s.withdrawals.WithTx(ctx, func(txCtx context.Context) error {
		if err := withdrawal.Complete(txCtx, req.Reviewer, providerRef); err != nil {
			return err
		}

		account, err := s.accounts.Get(txCtx, withdrawal.ClientID, withdrawal.Currency)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrAccountNotFound
		}
		if err := account.DebitFrozen(withdrawal.Amount); err != nil {
			return err
		}
		if err := s.accounts.Save(txCtx, account); err != nil {
			return err
		}
		return s.withdrawals.Update(txCtx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "提现打款完成",
		"withdrawal_id", withdrawal.WithdrawalID,
		"provider_ref", providerRef,
		"reviewer", req.Reviewer)
	return NewWithdrawalResponse(withdrawal), nil
}

// RejectWithdrawal 复核拒绝并解冻资金。重复拒绝是幂等 no-op。
func (s *AccountService) RejectWithdrawal(ctx context.Context, clientID, withdrawalID string, req ReviewWithdrawalRequest) (*WithdrawalResponse, error) {
	withdrawal, err := s.withdrawals.Get(ctx, clientID, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, domain.ErrWithdrawalNotFound
	}
	if withdrawal.Status == domain.WithdrawalStatusRejected {
		return NewWithdrawalResponse(withdrawal), nil
	}

	err = s.withdrawals.WithTx(ctx, func(txCtx context.Context) error {
		if err := withdrawal.Reject(txCtx, req.Reviewer, req.Reason); err != nil {
			return err
		}
		if err := s.releaseHold(txCtx, withdrawal); err != nil {
			return err
		}
		return s.withdrawals.Update(txCtx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "提现已拒绝",
		"withdrawal_id", withdrawal.WithdrawalID,
		"reviewer", req.Reviewer,
		"reason", req.Reason)
	return NewWithdrawalResponse(withdrawal), nil
}

// CancelWithdrawal 客户撤回提现并解冻资金。重复撤回是幂等 no-op。
func (s *AccountService) CancelWithdrawal(ctx context.Context, clientID, withdrawalID string) (*WithdrawalResponse, error) {
	withdrawal, err := s.withdrawals.Get(ctx, clientID, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, domain.ErrWithdrawalNotFound
	}
	if withdrawal.Status == domain.WithdrawalStatusCanceled {
		return NewWithdrawalResponse(withdrawal), nil
	}

	err = s.withdrawals.WithTx(ctx, func(txCtx context.Context) error {
		if err := withdrawal.Cancel(txCtx); err != nil {
			return err
		}
		if err := s.releaseHold(txCtx, withdrawal); err != nil {
			return err
		}
		return s.withdrawals.Update(txCtx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "提现已撤回", "withdrawal_id", withdrawal.WithdrawalID)
	return NewWithdrawalResponse(withdrawal), nil
}

// GetWithdrawal 查询客户提现订单
func (s *AccountService) GetWithdrawal(ctx context.Context, clientID, withdrawalID string) (*WithdrawalResponse, error) {
	withdrawal, err := s.withdrawals.Get(ctx, clientID, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, domain.ErrWithdrawalNotFound
	}
	return NewWithdrawalResponse(withdrawal), nil
}

// ListWithdrawals 按创建时间倒序分页查询客户提现订单
func (s *AccountService) ListWithdrawals(ctx context.Context, clientID string, limit, offset int) ([]*WithdrawalResponse, error) {
	withdrawals, err := s.withdrawals.ListByClient(ctx, clientID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	out := make([]*WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, NewWithdrawalResponse(w))
	}
	return out, nil
}

// Dashboard 客户资金总览：账户余额明细与可提现总额
func (s *AccountService) Dashboard(ctx context.Context, clientID string) (*DashboardResponse, error) {
	accounts, err := s.accounts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	withdrawable := decimal.Zero
	out := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		withdrawable = withdrawable.Add(a.Available)
		out = append(out, NewAccountResponse(a))
	}

	return &DashboardResponse{
		ClientID:     clientID,
		Withdrawable: withdrawable.String(),
		Accounts:     out,
	}, nil
}

// releaseHold 解冻提现占用的资金。账户缺失说明冻结从未发生，只告警不报错。
func (s *AccountService) releaseHold(ctx context.Context, withdrawal *domain.WithdrawalOrder) error {
	account, err := s.accounts.Get(ctx, withdrawal.ClientID, withdrawal.Currency)
	if err != nil {
		return err
	}
	if account == nil {
		s.logger.WarnContext(ctx, "解冻时账户不存在",
			"withdrawal_id", withdrawal.WithdrawalID,
			"client_id", withdrawal.ClientID,
			"currency", withdrawal.Currency)
		return nil
	}
	if err := account.Unfreeze(withdrawal.Amount); err != nil {
		return err
	}
	return s.accounts.Save(ctx, account)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
