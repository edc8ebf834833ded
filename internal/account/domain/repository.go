// 生成摘要：账户与充值/提现订单的仓储接口定义。
package domain

import (
	"context"
	"errors"
)

var (
	// ErrAccountNotFound 账户不存在
	ErrAccountNotFound = errors.New("account not found")
	// ErrDepositNotFound 充值订单不存在
	ErrDepositNotFound = errors.New("deposit order not found")
	// ErrWithdrawalNotFound 提现订单不存在
	ErrWithdrawalNotFound = errors.New("withdrawal order not found")
)

// AccountRepository 账户仓储接口
type AccountRepository interface {
	// Save 保存或更新账户
	Save(ctx context.Context, account *Account) error
	// Get 按 (客户, 货币) 获取账户，未找到返回 (nil, nil)
	Get(ctx context.Context, clientID, currency string) (*Account, error)
	// ListByClient 获取客户名下全部账户，按货币排序
	ListByClient(ctx context.Context, clientID string) ([]*Account, error)
}

// DepositRepository 充值订单仓储接口
type DepositRepository interface {
	// Save 保存充值订单
	Save(ctx context.Context, deposit *DepositOrder) error
	// Update 更新充值订单
	Update(ctx context.Context, deposit *DepositOrder) error
	// Get 按客户与充值单号查询，未找到返回 (nil, nil)
	Get(ctx context.Context, clientID, depositID string) (*DepositOrder, error)
	// ListByClient 按创建时间倒序分页查询客户充值订单
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*DepositOrder, error)
	// WithTx 事务执行
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// WithdrawalRepository 提现订单仓储接口
type WithdrawalRepository interface {
	// Save 保存提现订单
	Save(ctx context.Context, withdrawal *WithdrawalOrder) error
	// Update 更新提现订单
	Update(ctx context.Context, withdrawal *WithdrawalOrder) error
	// Get 按客户与提现单号查询，未找到返回 (nil, nil)
	Get(ctx context.Context, clientID, withdrawalID string) (*WithdrawalOrder, error)
	// ListByClient 按创建时间倒序分页查询客户提现订单
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*WithdrawalOrder, error)
	// WithTx 事务执行
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
