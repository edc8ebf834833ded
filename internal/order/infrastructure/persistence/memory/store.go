// Package memory 提供订单/成交的内存存储实现，用于本地运行与测试。
// 读写都基于副本，行为上等价于一个真正的外部存储。
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// Store 同时实现 OrderRepository、ExecutionRepository 与 PositionQuery
type Store struct {
	mu         sync.RWMutex
	orders     map[string]*domain.Order
	executions map[string][]*domain.Execution
	nextID     uint
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		orders:     make(map[string]*domain.Order),
		executions: make(map[string][]*domain.Execution),
	}
}

func (s *Store) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.OrderID]; ok {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}

	now := time.Now()
	s.nextID++
	order.ID = s.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	s.orders[order.OrderID] = order.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *Store) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.ClientID != "" && o.ClientID != filter.ClientID {
			continue
		}
		if filter.Symbol != "" && o.Symbol != filter.Symbol {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, o.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *Store) Save(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.UpdatedAt = time.Now()
	if order.ID == 0 {
		s.nextID++
		order.ID = s.nextID
		if order.CreatedAt.IsZero() {
			order.CreatedAt = order.UpdatedAt
		}
	}
	s.orders[order.OrderID] = order.Clone()
	return nil
}

func (s *Store) Append(ctx context.Context, execution *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	execution.ID = s.nextID
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = time.Now()
	}

	c := *execution
	s.executions[execution.OrderID] = append(s.executions[execution.OrderID], &c)
	return nil
}

func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	execs := s.executions[orderID]
	result := make([]*domain.Execution, 0, len(execs))
	for _, e := range execs {
		c := *e
		result = append(result, &c)
	}
	return result, nil
}

func (s *Store) ListAll(ctx context.Context) ([]*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Execution
	for _, execs := range s.executions {
		for _, e := range execs {
			c := *e
			result = append(result, &c)
		}
	}
	return result, nil
}

// ByClient 从成交记录聚合净持仓：BUY 计正、SELL 计负，
// 均价为全部成交的量加权均价（不区分方向）。
func (s *Store) ByClient(ctx context.Context, clientID string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		netQty   decimal.Decimal
		grossQty decimal.Decimal
		notional decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for orderID, execs := range s.executions {
		o, ok := s.orders[orderID]
		if !ok || o.ClientID != clientID {
			continue
		}
		b, ok := buckets[o.Symbol]
		if !ok {
			b = &bucket{}
			buckets[o.Symbol] = b
		}
		for _, e := range execs {
			if o.Side == domain.SideBuy {
				b.netQty = b.netQty.Add(e.Quantity)
			} else {
				b.netQty = b.netQty.Sub(e.Quantity)
			}
			b.grossQty = b.grossQty.Add(e.Quantity)
			b.notional = b.notional.Add(e.Quantity.Mul(e.Price))
		}
	}

	symbols := make([]string, 0, len(buckets))
	for sym := range buckets {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	positions := make([]*domain.Position, 0, len(symbols))
	for _, sym := range symbols {
		b := buckets[sym]
		avgPx := decimal.Zero
		if !b.grossQty.IsZero() {
			avgPx = b.notional.Div(b.grossQty)
		}
		positions = append(positions, &domain.Position{
			ClientID: clientID,
			Symbol:   sym,
			NetQty:   b.netQty,
			AvgPx:    avgPx,
		})
	}
	return positions, nil
}
