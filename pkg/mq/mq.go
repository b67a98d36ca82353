// Package mq 基于RabbitMQ的领域事件发布与订阅
//
// 使用topic类型的Exchange,Routing Key即事件类型(book.added、book.removed、review.added),
// 订阅方可以用通配符绑定,例如"book.*"。
//
// 消息体是JSON编码的Envelope,事件ID用于消费方去重。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/pkg/metrics"
)

// Envelope 消息信封
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Decode 解析Payload
func (e Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// channel Publisher用到的amqp.Channel方法
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher 事件发布者
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *zap.Logger
	now      func() time.Time
}

// NewPublisher 连接RabbitMQ并声明持久化的topic Exchange
func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	log.Info("事件发布者已创建", zap.String("exchange", exchange))
	return newPublisher(conn, ch, exchange, log), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange string, log *zap.Logger) *Publisher {
	return &Publisher{conn: conn, ch: ch, exchange: exchange, log: log, now: time.Now}
}

// Publish 发布一个事件,routingKey即事件类型
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: p.now().UTC(),
		Payload:    raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    env.ID,
		Type:         routingKey,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.OccurredAt,
	})
	if err != nil {
		metrics.IncMessagePublished(p.exchange, routingKey, metrics.ResultError)
		return fmt.Errorf("发布事件失败: %w", err)
	}

	metrics.IncMessagePublished(p.exchange, routingKey, metrics.ResultSuccess)
	p.log.Debug("事件已发布", zap.String("type", routingKey), zap.String("id", env.ID))
	return nil
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Consumer 事件订阅者
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *zap.Logger
}

// NewConsumer 声明队列并按routingKeys绑定到Exchange
// queue为空时创建服务端命名的独占临时队列(断开后自动删除)
func NewConsumer(url, exchange, queue string, routingKeys []string, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	fail := func(msg string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fail("声明Exchange失败", err)
	}

	temporary := queue == ""
	q, err := ch.QueueDeclare(queue, !temporary, temporary, temporary, false, nil)
	if err != nil {
		return fail("声明Queue失败", err)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return fail("绑定Queue失败", err)
		}
	}

	log.Info("事件订阅者已创建", zap.String("queue", q.Name), zap.Strings("routing_keys", routingKeys))
	return &Consumer{conn: conn, ch: ch, queue: q.Name, log: log}, nil
}

// Consume 逐条处理消息直到ctx结束
// 处理失败的消息重新入队,无法解析的消息直接丢弃
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, Envelope) error) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			c.deliver(ctx, msg, handler)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg amqp.Delivery, handler func(context.Context, Envelope) error) {
	var env Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		c.log.Warn("丢弃无法解析的消息", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if err := handler(ctx, env); err != nil {
		c.log.Warn("事件处理失败,重新入队", zap.String("id", env.ID), zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

// Close 关闭Channel和连接
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
