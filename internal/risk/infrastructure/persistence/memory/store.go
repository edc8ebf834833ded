// Package memory 提供风控限额的内存仓储，用于本地运行与测试。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/risk/domain"
)

// Store 内存限额仓储，读写都基于副本。
type Store struct {
	mu     sync.RWMutex
	limits map[string]*domain.RiskLimit
	nextID uint
}

// NewStore 创建内存限额仓储
func NewStore() *Store {
	return &Store{limits: make(map[string]*domain.RiskLimit)}
}

func key(clientID, symbol string) string {
	return clientID + "\x00" + symbol
}

func (s *Store) Upsert(_ context.Context, limit *domain.RiskLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	k := key(limit.ClientID, limit.Symbol)
	if existing, ok := s.limits[k]; ok {
		limit.ID = existing.ID
		limit.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		limit.ID = s.nextID
		limit.CreatedAt = now
	}
	limit.UpdatedAt = now
	s.limits[k] = limit.Clone()
	return nil
}

func (s *Store) FindByClientAndSymbol(_ context.Context, clientID, symbol string) (*domain.RiskLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit, ok := s.limits[key(clientID, symbol)]; ok {
		return limit.Clone(), nil
	}
	if symbol != "" {
		if limit, ok := s.limits[key(clientID, "")]; ok {
			return limit.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Store) List(_ context.Context, clientID string) ([]*domain.RiskLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RiskLimit
	for _, limit := range s.limits {
		if clientID != "" && limit.ClientID != clientID {
			continue
		}
		out = append(out, limit.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}
