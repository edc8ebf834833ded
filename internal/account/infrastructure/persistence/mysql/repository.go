// 生成摘要：账户与充值/提现订单的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
)

func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return db.WithContext(ctx)
}

// AccountMySQLRepository 账户 MySQL 仓储实现
type AccountMySQLRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	_ = db.AutoMigrate(&AccountModel{})
	return &AccountMySQLRepository{db: db}
}

// Save 保存账户，按 (client_id, currency) 幂等落库
func (r *AccountMySQLRepository) Save(ctx context.Context, account *domain.Account) error {
	model := r.toModel(account)
	err := getDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"balance", "available", "frozen", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		logging.Error(ctx, "保存账户失败", "client_id", account.ClientID, "currency", account.Currency, "error", err)
		return fmt.Errorf("保存账户失败: %w", err)
	}
	if account.ID == 0 {
		account.ID = model.ID
	}
	return nil
}

// Get 按 (客户, 货币) 获取账户，未命中返回 (nil, nil)
func (r *AccountMySQLRepository) Get(ctx context.Context, clientID, currency string) (*domain.Account, error) {
	var model AccountModel
	err := getDB(ctx, r.db).
		Where("client_id = ? AND currency = ?", clientID, currency).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询账户失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListByClient 获取客户名下全部账户，按货币排序
func (r *AccountMySQLRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Account, error) {
	var models []AccountModel
	err := getDB(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("currency ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("查询账户列表失败: %w", err)
	}
	accounts := make([]*domain.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, r.toDomain(&models[i]))
	}
	return accounts, nil
}

func (r *AccountMySQLRepository) toModel(account *domain.Account) *AccountModel {
	model := &AccountModel{
		ClientID:  account.ClientID,
		Currency:  account.Currency,
		Balance:   account.Balance,
		Available: account.Available,
		Frozen:    account.Frozen,
	}
	model.ID = account.ID
	return model
}

func (r *AccountMySQLRepository) toDomain(model *AccountModel) *domain.Account {
	return &domain.Account{
		ID:        model.ID,
		ClientID:  model.ClientID,
		Currency:  model.Currency,
		Balance:   model.Balance,
		Available: model.Available,
		Frozen:    model.Frozen,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// DepositMySQLRepository 充值订单 MySQL 仓储实现
type DepositMySQLRepository struct {
	db *gorm.DB
}

// NewDepositRepository 创建充值订单仓储
func NewDepositRepository(db *gorm.DB) domain.DepositRepository {
	_ = db.AutoMigrate(&DepositModel{})
	return &DepositMySQLRepository{db: db}
}

// Save 保存充值订单
func (r *DepositMySQLRepository) Save(ctx context.Context, deposit *domain.DepositOrder) error {
	model := r.toModel(deposit)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		logging.Error(ctx, "保存充值订单失败", "deposit_id", deposit.DepositID, "error", err)
		return fmt.Errorf("保存充值订单失败: %w", err)
	}
	deposit.ID = model.ID
	return nil
}

// Update 更新充值订单
func (r *DepositMySQLRepository) Update(ctx context.Context, deposit *domain.DepositOrder) error {
	model := r.toModel(deposit)
	err := getDB(ctx, r.db).Model(&DepositModel{}).
		Where("deposit_id = ?", deposit.DepositID).
		Updates(map[string]any{
			"status":           string(deposit.Status),
			"provider_ref":     deposit.ProviderRef,
			"payment_url":      deposit.PaymentURL,
			"confirmed_amount": model.ConfirmedAmount,
			"fail_reason":      deposit.FailReason,
			"confirmed_at":     deposit.ConfirmedAt,
			"completed_at":     deposit.CompletedAt,
		}).Error
	if err != nil {
		logging.Error(ctx, "更新充值订单失败", "deposit_id", deposit.DepositID, "error", err)
		return fmt.Errorf("更新充值订单失败: %w", err)
	}
	return nil
}

// Get 按客户与充值单号查询，未命中返回 (nil, nil)
func (r *DepositMySQLRepository) Get(ctx context.Context, clientID, depositID string) (*domain.DepositOrder, error) {
	var model DepositModel
	err := getDB(ctx, r.db).
		Where("deposit_id = ? AND client_id = ?", depositID, clientID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询充值订单失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListByClient 按创建时间倒序分页查询
func (r *DepositMySQLRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.DepositOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []DepositModel
	err := getDB(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("查询充值订单列表失败: %w", err)
	}
	deposits := make([]*domain.DepositOrder, 0, len(models))
	for i := range models {
		deposits = append(deposits, r.toDomain(&models[i]))
	}
	return deposits, nil
}

// WithTx 在一个数据库事务内执行回调
func (r *DepositMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *DepositMySQLRepository) toModel(deposit *domain.DepositOrder) *DepositModel {
	model := &DepositModel{
		DepositID:       deposit.DepositID,
		ClientID:        deposit.ClientID,
		Amount:          deposit.Amount,
		Currency:        deposit.Currency,
		Channel:         deposit.Channel,
		Status:          string(deposit.Status),
		ProviderRef:     deposit.ProviderRef,
		PaymentURL:      deposit.PaymentURL,
		ConfirmedAmount: deposit.ConfirmedAmount,
		FailReason:      deposit.FailReason,
		ConfirmedAt:     deposit.ConfirmedAt,
		CompletedAt:     deposit.CompletedAt,
	}
	model.ID = deposit.ID
	return model
}

func (r *DepositMySQLRepository) toDomain(model *DepositModel) *domain.DepositOrder {
	deposit := &domain.DepositOrder{
		ID:              model.ID,
		DepositID:       model.DepositID,
		ClientID:        model.ClientID,
		Amount:          model.Amount,
		Currency:        model.Currency,
		Channel:         model.Channel,
		Status:          domain.DepositStatus(model.Status),
		ProviderRef:     model.ProviderRef,
		PaymentURL:      model.PaymentURL,
		ConfirmedAmount: model.ConfirmedAmount,
		FailReason:      model.FailReason,
		ConfirmedAt:     model.ConfirmedAt,
		CompletedAt:     model.CompletedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	deposit.InitFSM()
	return deposit
}

// WithdrawalMySQLRepository 提现订单 MySQL 仓储实现
type WithdrawalMySQLRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现订单仓储
func NewWithdrawalRepository(db *gorm.DB) domain.WithdrawalRepository {
	_ = db.AutoMigrate(&WithdrawalModel{})
	return &WithdrawalMySQLRepository{db: db}
}

// Save 保存提现订单
func (r *WithdrawalMySQLRepository) Save(ctx context.Context, withdrawal *domain.WithdrawalOrder) error {
	model := r.toModel(withdrawal)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		logging.Error(ctx, "保存提现订单失败", "withdrawal_id", withdrawal.WithdrawalID, "error", err)
		return fmt.Errorf("保存提现订单失败: %w", err)
	}
	withdrawal.ID = model.ID
	return nil
}

// Update 更新提现订单
func (r *WithdrawalMySQLRepository) Update(ctx context.Context, withdrawal *domain.WithdrawalOrder) error {
	err := getDB(ctx, r.db).Model(&WithdrawalModel{}).
		Where("withdrawal_id = ?", withdrawal.WithdrawalID).
		Updates(map[string]any{
			"status":        string(withdrawal.Status),
			"provider_ref":  withdrawal.ProviderRef,
			"reviewed_by":   withdrawal.ReviewedBy,
			"reject_reason": withdrawal.RejectReason,
			"reviewed_at":   withdrawal.ReviewedAt,
			"completed_at":  withdrawal.CompletedAt,
		}).Error
	if err != nil {
		logging.Error(ctx, "更新提现订单失败", "withdrawal_id", withdrawal.WithdrawalID, "error", err)
		return fmt.Errorf("更新提现订单失败: %w", err)
	}
	return nil
}

// Get 按客户与提现单号查询，未命中返回 (nil, nil)
func (r *WithdrawalMySQLRepository) Get(ctx context.Context, clientID, withdrawalID string) (*domain.WithdrawalOrder, error) {
	var model WithdrawalModel
	err := getDB(ctx, r.db).
		Where("withdrawal_id = ? AND client_id = ?", withdrawalID, clientID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询提现订单失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListByClient 按创建时间倒序分页查询
func (r *WithdrawalMySQLRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.WithdrawalOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []WithdrawalModel
	err := getDB(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("查询提现订单列表失败: %w", err)
	}
	withdrawals := make([]*domain.WithdrawalOrder, 0, len(models))
	for i := range models {
		withdrawals = append(withdrawals, r.toDomain(&models[i]))
	}
	return withdrawals, nil
}

// WithTx 在一个数据库事务内执行回调
func (r *WithdrawalMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *WithdrawalMySQLRepository) toModel(withdrawal *domain.WithdrawalOrder) *WithdrawalModel {
	model := &WithdrawalModel{
		WithdrawalID:  withdrawal.WithdrawalID,
		ClientID:      withdrawal.ClientID,
		Amount:        withdrawal.Amount,
		Currency:      withdrawal.Currency,
		BankName:      withdrawal.BankName,
		BankAccount:   withdrawal.BankAccount,
		AccountHolder: withdrawal.AccountHolder,
		Status:        string(withdrawal.Status),
		ProviderRef:   withdrawal.ProviderRef,
		ReviewedBy:    withdrawal.ReviewedBy,
		RejectReason:  withdrawal.RejectReason,
		ReviewedAt:    withdrawal.ReviewedAt,
		CompletedAt:   withdrawal.CompletedAt,
	}
	model.ID = withdrawal.ID
	return model
}

func (r *WithdrawalMySQLRepository) toDomain(model *WithdrawalModel) *domain.WithdrawalOrder {
	withdrawal := &domain.WithdrawalOrder{
		ID:            model.ID,
		WithdrawalID:  model.WithdrawalID,
		ClientID:      model.ClientID,
		Amount:        model.Amount,
		Currency:      model.Currency,
		BankName:      model.BankName,
		BankAccount:   model.BankAccount,
		AccountHolder: model.AccountHolder,
		Status:        domain.WithdrawalStatus(model.Status),
		ProviderRef:   model.ProviderRef,
		ReviewedBy:    model.ReviewedBy,
		RejectReason:  model.RejectReason,
		ReviewedAt:    model.ReviewedAt,
		CompletedAt:   model.CompletedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	withdrawal.InitFSM()
	return withdrawal
}
