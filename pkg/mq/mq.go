// Package mq 库存事件发布（RabbitMQ）
//
// 交易提交后发布领域事件（采购、销售、退货、作废），供补货、报表等下游订阅。
// Exchange类型为topic，routing key即事件类型，例如inventory.transaction.created。
// 事件发布在数据库事务之外进行，发布失败只记录日志，不影响已提交的交易。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/pkg/metrics"
)

// Event 事件信封
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent 创建事件，ID为随机UUID，下游据此去重
func NewEvent(eventType string, occurredAt time.Time, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt,
		Payload:    payload,
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// AMQPPublisher 基于RabbitMQ的发布者
type AMQPPublisher struct {
	mu       sync.Mutex // Channel不支持并发发布
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewAMQPPublisher 连接RabbitMQ并声明持久化topic exchange
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	log.Info("事件发布者已创建", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

// Publish 发布事件（持久化消息）
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("事件序列化失败: %w", err)
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	p.mu.Unlock()

	if err != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("发布事件失败: %w", err)
	}

	metrics.MessagesPublishedTotal.WithLabelValues(event.Type, "success").Inc()
	p.log.Debug("事件已发布", zap.String("type", event.Type), zap.String("event_id", event.ID))
	return nil
}

// Close 关闭Channel和连接
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher 未启用消息队列时使用，只打调试日志
type NoopPublisher struct {
	log *zap.Logger
}

// NewNoopPublisher 创建空发布者
func NewNoopPublisher(log *zap.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event Event) error {
	p.log.Debug("消息队列未启用，丢弃事件", zap.String("type", event.Type), zap.String("event_id", event.ID))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
