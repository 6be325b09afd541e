package pubsub

import "context"

const (
	// CreatedEvent 任务开始（例如提交了一个问题）
	CreatedEvent EventType = "created"
	// UpdatedEvent 任务进度更新（例如一个数据源处理完成）
	UpdatedEvent EventType = "updated"
	// FinishedEvent 任务结束，载荷携带最终结果
	FinishedEvent EventType = "finished"
)

type (
	// EventType 标识事件的类型
	EventType string

	// Event 是一次发布的事件
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Subscriber 返回一个只读事件通道，context 结束时自动关闭
	Subscriber[T any] interface {
		Subscribe(context.Context) <-chan Event[T]
	}

	// Publisher 将事件发布给所有订阅者
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)

// Nop 丢弃所有事件，用于不需要进度通知的调用方
type Nop[T any] struct{}

// Publish 什么也不做
func (Nop[T]) Publish(EventType, T) {}
