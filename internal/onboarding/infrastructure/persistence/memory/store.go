// Package memory 开户上下文的内存仓储，供演示与测试环境使用。
// 所有读写持有互斥锁并以深拷贝进出，避免调用方共享内部状态。
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
)

// Store 实现 domain.OnboardingRepository。
type Store struct {
	mu           sync.Mutex
	applications map[string]*domain.OnboardingApplication
	order        []string
	nextID       uint
}

// NewStore 创建空的开户申请内存存储
func NewStore() *Store {
	return &Store{applications: make(map[string]*domain.OnboardingApplication)}
}

// Save 保存或更新申请
func (s *Store) Save(_ context.Context, app *domain.OnboardingApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.applications[app.ApplicationID]; ok {
		app.ID = existing.ID
	} else {
		s.nextID++
		app.ID = s.nextID
		s.order = append(s.order, app.ApplicationID)
	}
	s.applications[app.ApplicationID] = app.Clone()
	return nil
}

// Get 按申请号获取
func (s *Store) Get(_ context.Context, applicationID string) (*domain.OnboardingApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return nil, nil
	}
	return app.Clone(), nil
}

// GetBySession 按核验会话获取
func (s *Store) GetBySession(_ context.Context, sessionID string) (*domain.OnboardingApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		return nil, nil
	}
	for _, app := range s.applications {
		if app.SessionID == sessionID {
			return app.Clone(), nil
		}
	}
	return nil, nil
}

// LatestByClient 客户最近一笔申请
func (s *Store) LatestByClient(_ context.Context, clientID string) (*domain.OnboardingApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		app := s.applications[s.order[i]]
		if app.ClientID == clientID {
			return app.Clone(), nil
		}
	}
	return nil, nil
}

// ListByEmail 按申请人邮箱查询
func (s *Store) ListByEmail(_ context.Context, email string) ([]*domain.OnboardingApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OnboardingApplication
	for _, id := range s.order {
		if app := s.applications[id]; app.Email == email {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}
