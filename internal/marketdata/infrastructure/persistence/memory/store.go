// Package memory 参考价表的内存实现，进程内的权威存储。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/domain"
)

// Store 内存参考价表
type Store struct {
	mu     sync.RWMutex
	prices map[string]*domain.ReferencePrice
}

// NewStore 创建内存参考价表
func NewStore() *Store {
	return &Store{prices: make(map[string]*domain.ReferencePrice)}
}

// Get 获取参考价，未知符号返回 (nil, nil)
func (s *Store) Get(ctx context.Context, symbol string) (*domain.ReferencePrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[symbol]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

// Set 写入或覆盖参考价
func (s *Store) Set(ctx context.Context, price *domain.ReferencePrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *price
	s.prices[price.Symbol] = &c
	return nil
}

// List 按符号排序列出全部参考价
func (s *Store) List(ctx context.Context) ([]*domain.ReferencePrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ReferencePrice, 0, len(s.prices))
	for _, p := range s.prices {
		c := *p
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}
