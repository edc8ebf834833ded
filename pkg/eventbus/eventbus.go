// Package eventbus 提供进程内的主题订阅/发布总线
package eventbus

import (
	"context"
	"sync"

	"github.com/wyfcoding/ordermanagement/pkg/logger"
)

// Handler 处理一条发布到总线的事件。返回的错误只做日志记录，不会中断其它订阅者。
type Handler[T any] func(ctx context.Context, event T) error

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// Bus 是线程安全的内存事件总线，按主题分发事件。
type Bus[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription[T]
}

// New 创建事件总线
func New[T any]() *Bus[T] {
	return &Bus[T]{
		topics: make(map[string][]subscription[T]),
	}
}

// Subscribe 注册主题处理器，返回幂等的取消订阅函数。
func (b *Bus[T]) Subscribe(topic string, handler Handler[T]) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription[T]{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.unsubscribe(topic, id)
	}
}

func (b *Bus[T]) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, s := range subs {
		if s.id == id {
			b.topics[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

// Publish 将事件分发给主题的所有订阅者。
// 处理器列表在锁内拷贝、锁外调用，发布期间的订阅变更不影响本次分发。
func (b *Bus[T]) Publish(ctx context.Context, topic string, event T) {
	b.mu.RLock()
	subs := make([]subscription[T], len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(ctx, topic, s, event)
	}
}

// dispatch 单个处理器的调用，错误与 panic 均被隔离。
func (b *Bus[T]) dispatch(ctx context.Context, topic string, s subscription[T], event T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "event handler panicked", "topic", topic, "panic", r)
		}
	}()

	if err := s.handler(ctx, event); err != nil {
		logger.Error(ctx, "event handler failed", "topic", topic, "error", err)
	}
}

// SubscriberCount 返回主题当前的订阅者数量。
func (b *Bus[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
