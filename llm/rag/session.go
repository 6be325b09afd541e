package rag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nairobi-rag/llm"
	"nairobi-rag/pubsub"
)

// Answerer 回答单个问题，*Service 实现了该接口
type Answerer interface {
	Answer(ctx context.Context, query string) (*llm.AnswerResult, error)
}

// Exchange 一次问答：成功时 Result 非空，失败时 Err 非空
type Exchange struct {
	ID       int
	Query    string
	Result   *llm.AnswerResult
	Err      error
	Started  time.Time
	Finished time.Time
}

// Done 是否已经结束
func (e Exchange) Done() bool {
	return !e.Finished.IsZero()
}

// Session 聊天会话：同一时刻只处理一个问题
type Session struct {
	answerer Answerer
	history  *History
	broker   *pubsub.Broker[Exchange]

	mu     sync.Mutex // 串行化 Ask
	busy   atomic.Bool
	nextID atomic.Int64
}

// NewSession 创建会话，historySize 为保留的问答条数
func NewSession(answerer Answerer, historySize int) *Session {
	return &Session{
		answerer: answerer,
		history:  NewHistory(historySize),
		broker:   pubsub.NewBroker[Exchange](),
	}
}

// Ask 回答一个问题。开始时发布 CreatedEvent，结束时发布 FinishedEvent。
// 错误记录在 Exchange.Err 中，会话保持可用。
func (s *Session) Ask(ctx context.Context, query string) Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy.Store(true)
	defer s.busy.Store(false)

	ex := Exchange{
		ID:      int(s.nextID.Add(1)),
		Query:   query,
		Started: time.Now(),
	}
	s.broker.Publish(pubsub.CreatedEvent, ex)

	ex.Result, ex.Err = s.answerer.Answer(ctx, query)
	ex.Finished = time.Now()

	// 空问题不计入历史
	if !errors.Is(ex.Err, ErrEmptyQuery) {
		s.history.Add(ex)
	}
	s.broker.Publish(pubsub.FinishedEvent, ex)
	return ex
}

// Busy 是否有问题正在处理
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// History 获取问答历史
func (s *Session) History() *History {
	return s.history
}

// Broker 获取事件 Broker
func (s *Session) Broker() *pubsub.Broker[Exchange] {
	return s.broker
}

// Close 关闭会话
func (s *Session) Close() {
	s.broker.Shutdown()
}
