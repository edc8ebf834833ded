// Package consumer 行情参考价的 Kafka 消费入口。
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/application"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
)

// PriceConsumer 消费 {"symbol","price"} 行情消息刷新参考价表。
// 解析或校验失败的消息投递死信后继续，消费循环不因脏数据中断。
type PriceConsumer struct {
	consumer *mq.KafkaConsumer
	dlq      *mq.DeadLetterQueue
	svc      *application.MarketDataService
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPriceConsumer 创建行情消费者，dlq 可为 nil
func NewPriceConsumer(consumer *mq.KafkaConsumer, dlq *mq.DeadLetterQueue, svc *application.MarketDataService, logger *slog.Logger) *PriceConsumer {
	return &PriceConsumer{
		consumer: consumer,
		dlq:      dlq,
		svc:      svc,
		logger:   logger.With("module", "price_consumer"),
	}
}

// Start 启动消费循环
func (c *PriceConsumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop 停止消费并关闭底层 reader
func (c *PriceConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.consumer.Close()
	c.wg.Wait()
}

func (c *PriceConsumer) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.ErrorContext(ctx, "读取行情消息失败", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			c.logger.WarnContext(ctx, "行情消息处理失败", "offset", msg.Offset, "error", err)
			if c.dlq != nil {
				if derr := c.dlq.Send(ctx, msg, "malformed market price", err); derr != nil {
					c.logger.ErrorContext(ctx, "行情死信投递失败", "error", derr)
				}
			}
		}
	}
}

func (c *PriceConsumer) handle(ctx context.Context, msg *mq.Message) error {
	var event struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := msg.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("解析行情消息失败: %w", err)
	}

	if err := c.svc.SetPrice(ctx, event.Symbol, event.Price); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "参考价已更新", "symbol", event.Symbol, "price", event.Price)
	return nil
}
