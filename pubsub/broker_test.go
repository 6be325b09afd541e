package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 订阅后能收到发布的事件
func TestBrokerFlow(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)
	broker.Publish(CreatedEvent, "How old is Nairobi National Park?")
	broker.Publish(FinishedEvent, "done")

	select {
	case ev := <-events:
		assert.Equal(t, CreatedEvent, ev.Type)
		assert.Equal(t, "How old is Nairobi National Park?", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("接收消息超时")
	}

	ev := <-events
	assert.Equal(t, FinishedEvent, ev.Type)
}

// context 取消后自动退订并关闭通道
func TestAutoUnsubscribe(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()

	assert.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-events
	assert.False(t, ok)
}

// 慢订阅者不会阻塞发布者，超出缓冲区的事件被丢弃
func TestNonBlockingPublish(t *testing.T) {
	broker := NewBrokerWithBuffer[int](4)
	defer broker.Shutdown()

	events := broker.Subscribe(context.Background())
	for i := 0; i < 100; i++ {
		broker.Publish(UpdatedEvent, i)
	}

	assert.Len(t, events, 4)
	assert.Equal(t, 0, (<-events).Payload)
}

// 关闭后通道被关闭，重复关闭与关闭后订阅都是安全的
func TestBrokerShutdown(t *testing.T) {
	broker := NewBroker[string]()
	events := broker.Subscribe(context.Background())

	broker.Shutdown()
	broker.Shutdown()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("关闭后订阅通道未关闭")
	}

	late := broker.Subscribe(context.Background())
	_, ok := <-late
	assert.False(t, ok)

	broker.Publish(CreatedEvent, "ignored")
	assert.Equal(t, 0, broker.SubscriberCount())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher[string] = Nop[string]{}
	p.Publish(FinishedEvent, "nothing happens")
}
