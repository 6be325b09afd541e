package component

import (
	"nairobi-rag/llm/rag"
	"nairobi-rag/pubsub"
	"nairobi-rag/tui/component/renderer"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ListModel 封装问答列表组件
// 负责问答存储和 viewport 管理，渲染逻辑委托给 MessageRenderer
type ListModel struct {
	viewport  viewport.Model
	exchanges []rag.Exchange
	width     int
	height    int
	ready     bool

	// renderer 问答渲染器
	renderer *renderer.MessageRenderer
}

// NewListModel 创建新的问答列表组件，welcome 为启动时显示的横幅
func NewListModel(welcome string) ListModel {
	msgRenderer := renderer.NewMessageRenderer(nil, welcome)

	vp := viewport.New(30, 30)
	vp.SetContent(msgRenderer.RenderExchanges(nil))

	return ListModel{
		viewport: vp,
		renderer: msgRenderer,
		width:    30,
		height:   5,
		ready:    true,
	}
}

// Init 初始化组件
func (m ListModel) Init() tea.Cmd {
	return nil
}

// Update 更新组件状态
func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// 处理鼠标滚轮事件
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
	case pubsub.Event[rag.Exchange]:
		m.upsert(msg.Payload)
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m, nil
	}

	// 更新 viewport
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// upsert 新问答追加到末尾，已有问答（同 ID）原地更新
func (m *ListModel) upsert(ex rag.Exchange) {
	for i := len(m.exchanges) - 1; i >= 0; i-- {
		if m.exchanges[i].ID == ex.ID {
			m.exchanges[i] = ex
			return
		}
	}
	m.exchanges = append(m.exchanges, ex)
}

// SetExchanges 以会话历史重建列表，用于问答结束或清空历史之后
func (m *ListModel) SetExchanges(exchanges []rag.Exchange) {
	m.exchanges = exchanges
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

// Exchanges 返回当前显示的问答
func (m ListModel) Exchanges() []rag.Exchange {
	return m.exchanges
}

// View 渲染组件视图
func (m ListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// SetSize 设置组件尺寸
func (m *ListModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	// 确保高度至少为 1，防止负数或零
	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	m.ready = true

	// 更新渲染器宽度
	m.renderer.SetViewportWidth(width)
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

// updateViewportContent 更新 viewport 内容
func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.RenderExchanges(m.exchanges))
}
