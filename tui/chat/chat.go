package chat

import (
	"context"
	"fmt"

	"nairobi-rag/llm/rag"
	"nairobi-rag/pubsub"
	"nairobi-rag/tui/component"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Asker 聊天界面依赖的会话能力，*rag.Session 实现了该接口
type Asker interface {
	Ask(ctx context.Context, query string) rag.Exchange
	Broker() *pubsub.Broker[rag.Exchange]
	History() *rag.History
}

// askDoneMsg 后台提问结束
type askDoneMsg struct{}

// Model 聊天界面模型
type Model struct {
	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	session Asker
	sub     <-chan pubsub.Event[rag.Exchange]
	ctx     context.Context
	busy    bool // 正在处理问题时拒绝新的提交

	width  int
	height int
}

// InitialModel 创建初始模型，banner 显示在空的问答列表中
func InitialModel(ctx context.Context, session Asker, banner string) Model {
	sub := session.Broker().Subscribe(ctx)

	return Model{
		list:    component.NewListModel(banner),
		edit:    component.NewEditModel(),
		status:  component.NewStatusModel(),
		session: session,
		sub:     sub,
		ctx:     ctx,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.edit.Init(),
		m.status.Init(),
		m.waitForExchange(), // 订阅会话事件
	)
}

// waitForExchange 等待会话事件的 Cmd
func (m Model) waitForExchange() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

// ask 在 Bubble Tea 的命令 goroutine 中提问，结果通过 Broker 返回
func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		m.session.Ask(m.ctx, query)
		return askDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case component.EditorSubmitMsg:
		if m.busy {
			m.status.SetNotice("still answering the previous question")
			return m, nil
		}
		m.busy = true
		cmds = append(cmds, m.ask(msg.Value))

	case askDoneMsg:
		// 事件可能被 Broker 丢弃，以历史为准
		m.busy = false
		m.status.Stop()
		m.list.SetExchanges(m.session.History().List())
		return m, nil

	case pubsub.Event[rag.Exchange]:
		// 继续等待下一条事件
		cmds = append(cmds, m.waitForExchange())
		// list 和 status 会在下面透传处理

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			if m.busy {
				m.status.SetNotice("still answering the previous question")
				return m, nil
			}
			history := m.session.History()
			m.status.SetNotice(fmt.Sprintf("cleared %d exchanges", history.Len()))
			history.Clear()
			m.list.SetExchanges(nil)
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				m.status.SetNotice("still answering the previous question")
				return m, nil
			}
		}
	}

	// 更新各子组件
	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if ev, ok := msg.(pubsub.Event[rag.Exchange]); ok && ev.Type == pubsub.FinishedEvent {
		m.list.SetExchanges(m.session.History().List())
	}

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// layout 计算各组件尺寸
func (m *Model) layout() {
	statusHeight := lipgloss.Height(m.status.View())
	editHeight := m.edit.Height()
	listHeight := m.height - statusHeight - editHeight

	m.list.SetSize(m.width, listHeight)
	m.edit.SetWidth(m.width)
	m.status.SetWidth(m.width)
}

// Busy 是否有问题正在处理
func (m Model) Busy() bool {
	return m.busy
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}
