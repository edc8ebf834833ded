// Package memory 账户上下文的内存仓储，供演示与测试环境使用。
// 所有读写持有互斥锁并以深拷贝进出，避免调用方共享内部状态。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/ordermanagement/internal/account/domain"
)

type accountKey struct {
	clientID string
	currency string
}

// AccountStore 实现 domain.AccountRepository。
type AccountStore struct {
	mu       sync.Mutex
	accounts map[accountKey]*domain.Account
	nextID   uint
}

// NewAccountStore 创建空的账户内存存储
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[accountKey]*domain.Account)}
}

// Save 保存或更新账户
func (s *AccountStore) Save(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey{clientID: account.ClientID, currency: account.Currency}
	if existing, ok := s.accounts[key]; ok {
		account.ID = existing.ID
	} else {
		s.nextID++
		account.ID = s.nextID
	}
	s.accounts[key] = account.Clone()
	return nil
}

// Get 按 (客户, 货币) 获取账户
func (s *AccountStore) Get(_ context.Context, clientID, currency string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountKey{clientID: clientID, currency: currency}]
	if !ok {
		return nil, nil
	}
	return account.Clone(), nil
}

// ListByClient 获取客户名下全部账户，按货币排序
func (s *AccountStore) ListByClient(_ context.Context, clientID string) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Account
	for key, account := range s.accounts {
		if key.clientID == clientID {
			out = append(out, account.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// DepositStore 实现 domain.DepositRepository。
type DepositStore struct {
	mu       sync.Mutex
	deposits map[string]*domain.DepositOrder
	order    []string
	nextID   uint
}

// NewDepositStore 创建空的充值订单内存存储
func NewDepositStore() *DepositStore {
	return &DepositStore{deposits: make(map[string]*domain.DepositOrder)}
}

// Save 保存充值订单
func (s *DepositStore) Save(_ context.Context, deposit *domain.DepositOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deposits[deposit.DepositID]; !ok {
		s.nextID++
		deposit.ID = s.nextID
		s.order = append(s.order, deposit.DepositID)
	}
	s.deposits[deposit.DepositID] = deposit.Clone()
	return nil
}

// Update 更新充值订单
func (s *DepositStore) Update(ctx context.Context, deposit *domain.DepositOrder) error {
	return s.Save(ctx, deposit)
}

// Get 按客户与充值单号查询
func (s *DepositStore) Get(_ context.Context, clientID, depositID string) (*domain.DepositOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deposit, ok := s.deposits[depositID]
	if !ok || deposit.ClientID != clientID {
		return nil, nil
	}
	return deposit.Clone(), nil
}

// ListByClient 按创建时间倒序分页查询
func (s *DepositStore) ListByClient(_ context.Context, clientID string, limit, offset int) ([]*domain.DepositOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var out []*domain.DepositOrder
	skipped := 0
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		deposit := s.deposits[s.order[i]]
		if deposit.ClientID != clientID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, deposit.Clone())
	}
	return out, nil
}

// WithTx 内存实现没有真正的事务，直接执行回调
func (s *DepositStore) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// WithdrawalStore 实现 domain.WithdrawalRepository。
type WithdrawalStore struct {
	mu          sync.Mutex
	withdrawals map[string]*domain.WithdrawalOrder
	order       []string
	nextID      uint
}

// NewWithdrawalStore 创建空的提现订单内存存储
func NewWithdrawalStore() *WithdrawalStore {
	return &WithdrawalStore{withdrawals: make(map[string]*domain.WithdrawalOrder)}
}

// Save 保存提现订单
func (s *WithdrawalStore) Save(_ context.Context, withdrawal *domain.WithdrawalOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.withdrawals[withdrawal.WithdrawalID]; !ok {
		s.nextID++
		withdrawal.ID = s.nextID
		s.order = append(s.order, withdrawal.WithdrawalID)
	}
	s.withdrawals[withdrawal.WithdrawalID] = withdrawal.Clone()
	return nil
}

// Update 更新提现订单
func (s *WithdrawalStore) Update(ctx context.Context, withdrawal *domain.WithdrawalOrder) error {
	return s.Save(ctx, withdrawal)
}

// Get 按客户与提现单号查询
func (s *WithdrawalStore) Get(_ context.Context, clientID, withdrawalID string) (*domain.WithdrawalOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	withdrawal, ok := s.withdrawals[withdrawalID]
	if !ok || withdrawal.ClientID != clientID {
		return nil, nil
	}
	return withdrawal.Clone(), nil
}

// ListByClient 按创建时间倒序分页查询
func (s *WithdrawalStore) ListByClient(_ context.Context, clientID string, limit, offset int) ([]*domain.WithdrawalOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var out []*domain.WithdrawalOrder
	skipped := 0
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		withdrawal := s.withdrawals[s.order[i]]
		if withdrawal.ClientID != clientID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, withdrawal.Clone())
	}
	return out, nil
}

// WithTx 内存实现没有真正的事务，直接执行回调
func (s *WithdrawalStore) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
