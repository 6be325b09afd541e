package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"nairobi-rag/llm"
	"nairobi-rag/llm/rag"
	"nairobi-rag/pubsub"
	"nairobi-rag/tui/component"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	broker  *pubsub.Broker[rag.Exchange]
	history *rag.History
	queries []string
}

func newFakeAsker() *fakeAsker {
	return &fakeAsker{
		broker:  pubsub.NewBroker[rag.Exchange](),
		history: rag.NewHistory(10),
	}
}

func (f *fakeAsker) Ask(_ context.Context, query string) rag.Exchange {
	f.queries = append(f.queries, query)
	ex := rag.Exchange{ID: len(f.queries), Query: query, Finished: time.Now()}
	f.history.Add(ex)
	return ex
}

func (f *fakeAsker) Broker() *pubsub.Broker[rag.Exchange] {
	return f.broker
}

func (f *fakeAsker) History() *rag.History {
	return f.history
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// 处理中拒绝新的提交，完成后恢复
func TestModel_RefusesSubmitWhileBusy(t *testing.T) {
	asker := newFakeAsker()
	defer asker.broker.Shutdown()

	m := InitialModel(context.Background(), asker, "banner")
	m, cmd := update(t, m, component.EditorSubmitMsg{Value: "Where is Karura Forest?"})
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())

	m, cmd = update(t, m, component.EditorSubmitMsg{Value: "second"})
	assert.Nil(t, cmd)
	assert.True(t, m.Busy())
	assert.Contains(t, m.View(), "still answering")

	m, _ = update(t, m, askDoneMsg{})
	assert.False(t, m.Busy())
}

// 会话事件更新问答列表
func TestModel_RendersExchangeEvents(t *testing.T) {
	asker := newFakeAsker()
	defer asker.broker.Shutdown()

	m := InitialModel(context.Background(), asker, "Index: vector_index/index.db (12 chunks)")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, m.View(), "12 chunks")

	started := time.Now()
	m, _ = update(t, m, pubsub.Event[rag.Exchange]{
		Type:    pubsub.CreatedEvent,
		Payload: rag.Exchange{ID: 1, Query: "What is at the Giraffe Centre?", Started: started},
	})
	require.Len(t, m.list.Exchanges(), 1)
	assert.True(t, m.status.IsRunning())

	first := rag.Exchange{
		ID: 1, Query: "What is at the Giraffe Centre?", Started: started, Finished: started.Add(time.Second),
		Result: &llm.AnswerResult{Answer: "Rothschild giraffes.", Sources: []string{"giraffe_centre.txt"}},
	}
	asker.history.Add(first)
	m, _ = update(t, m, pubsub.Event[rag.Exchange]{Type: pubsub.FinishedEvent, Payload: first})
	require.Len(t, m.list.Exchanges(), 1)
	assert.False(t, m.status.IsRunning())

	view := m.View()
	assert.Contains(t, view, "Answer:")
	assert.Contains(t, view, "giraffe_centre.txt")

	failed := rag.Exchange{
		ID: 2, Query: "boom", Started: started, Finished: started,
		Err: errors.New("model unavailable"),
	}
	asker.history.Add(failed)
	m, _ = update(t, m, pubsub.Event[rag.Exchange]{Type: pubsub.FinishedEvent, Payload: failed})
	assert.Len(t, m.list.Exchanges(), 2)
	assert.Contains(t, m.View(), "model unavailable")
}

// 结束事件丢失时，以会话历史为准
func TestModel_AskDoneRebuildsFromHistory(t *testing.T) {
	asker := newFakeAsker()
	defer asker.broker.Shutdown()

	m := InitialModel(context.Background(), asker, "banner")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	started := time.Now()
	m, _ = update(t, m, pubsub.Event[rag.Exchange]{
		Type:    pubsub.CreatedEvent,
		Payload: rag.Exchange{ID: 1, Query: "Is Karura Forest open?", Started: started},
	})
	require.True(t, m.status.IsRunning())

	asker.history.Add(rag.Exchange{
		ID: 1, Query: "Is Karura Forest open?", Started: started, Finished: started.Add(time.Second),
		Result: &llm.AnswerResult{Answer: "Open daily.", Sources: []string{"karura_forest.txt"}},
	})
	m, _ = update(t, m, askDoneMsg{})

	require.Len(t, m.list.Exchanges(), 1)
	assert.True(t, m.list.Exchanges()[0].Done())
	assert.False(t, m.status.IsRunning())
	assert.Contains(t, m.View(), "karura_forest.txt")
}

// Ctrl+L 清空历史和列表
func TestModel_ClearHistory(t *testing.T) {
	asker := newFakeAsker()
	defer asker.broker.Shutdown()

	m := InitialModel(context.Background(), asker, "banner")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	asker.Ask(context.Background(), "Where is Bomas of Kenya?")
	m, _ = update(t, m, askDoneMsg{})
	require.Len(t, m.list.Exchanges(), 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.list.Exchanges())
	assert.Zero(t, asker.history.Len())
	assert.Contains(t, m.View(), "cleared 1 exchanges")
}
