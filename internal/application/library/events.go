package library

import (
	"context"

	"go.uber.org/zap"
)

// 领域事件类型,同时作为RabbitMQ的Routing Key
const (
	EventBookAdded   = "book.added"
	EventBookRemoved = "book.removed"
	EventReviewAdded = "review.added"
)

// EventPublisher 事件发布接口,由mq.Publisher实现
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// NopPublisher 未配置消息队列时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// BookAddedEvent 图书已添加
type BookAddedEvent struct {
	BookID  int    `json:"book_id"`
	ISBN    string `json:"isbn"`
	Title   string `json:"title"`
	AddedBy string `json:"added_by"`
}

// BookRemovedEvent 图书已删除
type BookRemovedEvent struct {
	BookID    int    `json:"book_id"`
	RemovedBy string `json:"removed_by"`
}

// ReviewAddedEvent 书评已添加
type ReviewAddedEvent struct {
	BookID   int    `json:"book_id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// events 发布失败只记日志,数据已经写入存储,不能因为通知失败让请求失败
type events struct {
	pub EventPublisher
	log *zap.Logger
}

func (e events) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := e.pub.Publish(ctx, routingKey, payload); err != nil {
		e.log.Warn("发布领域事件失败", zap.String("type", routingKey), zap.Error(err))
	}
}
