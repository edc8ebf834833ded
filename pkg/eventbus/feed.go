package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/ordermanagement/pkg/logger"
)

// 队列打满告警的最小间隔，避免慢消费者刷日志
const dropWarnInterval = time.Second

// Feed 将总线主题桥接为有界通道，供单个慢速消费者（如 WebSocket 连接）拉取。
// 队列打满时丢弃最新事件，发布方永远不会被消费者阻塞。
type Feed[T any] struct {
	events      chan T
	unsubscribe func()
	closeOnce   sync.Once
	onDrop      func()

	mu       sync.Mutex
	lastWarn time.Time
}

// NewFeed 订阅主题并返回有界事件通道。
// size 非正时取 256；onDrop 在每次丢弃时回调，可为 nil。
func NewFeed[T any](bus *Bus[T], topic string, size int, onDrop func()) *Feed[T] {
	if size <= 0 {
		size = 256
	}
	f := &Feed[T]{
		events: make(chan T, size),
		onDrop: onDrop,
	}
	f.unsubscribe = bus.Subscribe(topic, func(ctx context.Context, event T) error {
		select {
		case f.events <- event:
		default:
			f.drop(ctx, topic)
		}
		return nil
	})
	return f
}

// Events 有界事件通道。Close 后通道不关闭，消费方需配合自身退出信号使用。
func (f *Feed[T]) Events() <-chan T {
	return f.events
}

// Close 退订主题，幂等。
// 不关闭 events 通道：退订瞬间仍可能有在途分发写入。
func (f *Feed[T]) Close() {
	f.closeOnce.Do(f.unsubscribe)
}

func (f *Feed[T]) drop(ctx context.Context, topic string) {
	if f.onDrop != nil {
		f.onDrop()
	}

	f.mu.Lock()
	now := time.Now()
	warn := now.Sub(f.lastWarn) >= dropWarnInterval
	if warn {
		f.lastWarn = now
	}
	f.mu.Unlock()

	if warn {
		logger.Warn(ctx, "subscriber queue full, dropping event", "topic", topic, "capacity", cap(f.events))
	}
}
