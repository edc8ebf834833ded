// 生成摘要：订单事件发布，进程内总线分发 + Kafka 镜像。
package messaging

import (
	"context"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/eventbus"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
	"github.com/wyfcoding/pkg/logging"
)

// BusPublisher 进程内事件发布器，按客户主题分发给流式订阅方
type BusPublisher struct {
	bus     *eventbus.Bus[domain.Event]
	metrics *metrics.Metrics
}

// NewBusPublisher 创建进程内事件发布器
func NewBusPublisher(bus *eventbus.Bus[domain.Event], m *metrics.Metrics) *BusPublisher {
	return &BusPublisher{bus: bus, metrics: m}
}

func (p *BusPublisher) PublishOrderUpdate(ctx context.Context, order *domain.Order) error {
	event := domain.Event{Type: domain.EventOrderUpdate, Payload: order.Snapshot()}
	p.bus.Publish(ctx, domain.OrderTopic(order.ClientID), event)
	p.count()
	return nil
}

func (p *BusPublisher) PublishOrderReject(ctx context.Context, order *domain.Order, code, message string) error {
	event := domain.Event{
		Type:    domain.EventOrderReject,
		Payload: domain.RejectDetail{Code: code, Message: message, Order: order.Snapshot()},
	}
	p.bus.Publish(ctx, domain.OrderTopic(order.ClientID), event)
	p.count()
	return nil
}

func (p *BusPublisher) count() {
	if p.metrics != nil {
		p.metrics.EventsPublishedTotal.Inc()
	}
}

// KafkaMirrorPublisher 在进程内分发之外，将事件镜像到 Kafka 供外部系统消费。
// Kafka 写入失败只记日志，不阻断订单主流程。
type KafkaMirrorPublisher struct {
	inner    domain.EventPublisher
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaMirrorPublisher 创建带 Kafka 镜像的发布器
func NewKafkaMirrorPublisher(inner domain.EventPublisher, producer *mq.KafkaProducer, topic string) *KafkaMirrorPublisher {
	return &KafkaMirrorPublisher{inner: inner, producer: producer, topic: topic}
}

func (p *KafkaMirrorPublisher) PublishOrderUpdate(ctx context.Context, order *domain.Order) error {
	if err := p.inner.PublishOrderUpdate(ctx, order); err != nil {
		return err
	}
	p.mirror(ctx, order, domain.Event{Type: domain.EventOrderUpdate, Payload: order.Snapshot()})
	return nil
}

func (p *KafkaMirrorPublisher) PublishOrderReject(ctx context.Context, order *domain.Order, code, message string) error {
	if err := p.inner.PublishOrderReject(ctx, order, code, message); err != nil {
		return err
	}
	p.mirror(ctx, order, domain.Event{
		Type:    domain.EventOrderReject,
		Payload: domain.RejectDetail{Code: code, Message: message, Order: order.Snapshot()},
	})
	return nil
}

// mirror 以 clientId 为分区键，保证单个客户的事件在分区内有序。
func (p *KafkaMirrorPublisher) mirror(ctx context.Context, order *domain.Order, event domain.Event) {
	if p.producer == nil {
		return
	}
	if err := p.producer.SendMessage(ctx, p.topic, order.ClientID, event); err != nil {
		logging.Error(ctx, "镜像订单事件到 Kafka 失败",
			"order_id", order.OrderID,
			"type", string(event.Type),
			"error", err,
		)
	}
}
