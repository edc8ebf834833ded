// Package memory 对账运行档案的内存实现，memory driver 与测试使用。
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
)

// Store 内存运行档案，持有深拷贝避免调用方改动穿透
type Store struct {
	mu     sync.RWMutex
	runs   map[string]*domain.Run
	order  []string
	nextID uint
}

// NewStore 创建内存运行档案
func NewStore() *Store {
	return &Store{runs: make(map[string]*domain.Run)}
}

// SaveRun 归档一次运行
func (s *Store) SaveRun(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.RunID]; !ok {
		s.order = append(s.order, run.RunID)
	}
	if run.ID == 0 {
		s.nextID++
		run.ID = s.nextID
	}
	for i := range run.Issues {
		if run.Issues[i].ID == 0 {
			s.nextID++
			run.Issues[i].ID = s.nextID
		}
	}
	s.runs[run.RunID] = run.Clone()
	return nil
}

// GetRun 按运行号获取，未命中返回 (nil, nil)
func (s *Store) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	return run.Clone(), nil
}

// ListRuns 按归档顺序倒序列出最近的运行
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	result := make([]*domain.Run, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.runs[s.order[i]].Clone())
	}
	return result, nil
}
