package renderer

import (
	"github.com/charmbracelet/lipgloss"
)

// MessageStyles 消息渲染样式配置
type MessageStyles struct {
	// 问答样式
	User    lipgloss.Style
	Answer  lipgloss.Style
	Sources lipgloss.Style
	Source  lipgloss.Style
	Error   lipgloss.Style
	System  lipgloss.Style
	Meta    lipgloss.Style

	Indent lipgloss.Style
}

// DefaultMessageStyles 返回默认消息样式配置
func DefaultMessageStyles() *MessageStyles {
	return &MessageStyles{
		User:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		Answer:  lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		Sources: lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true),
		Source:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		System:  lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Faint(true),
		Indent:  lipgloss.NewStyle().PaddingLeft(2),
	}
}

// Icons 图标配置
type Icons struct {
	Source  string
	Clock   string
	Pending string
	Error   string
}

// DefaultIcons 返回默认图标
func DefaultIcons() *Icons {
	return &Icons{
		Source:  "📄",
		Clock:   "⏱",
		Pending: "…",
		Error:   "❌",
	}
}
