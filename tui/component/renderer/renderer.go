package renderer

import (
	"fmt"
	"strings"

	"nairobi-rag/llm/rag"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// MessageRenderer 问答渲染器
type MessageRenderer struct {
	markdownRenderer *glamour.TermRenderer
	styles           *MessageStyles
	icons            *Icons
	renderedCache    map[int]string // 已完成问答的缓存，按 Exchange.ID
	viewportWidth    int
	welcome          string
}

// NewMessageRenderer 创建问答渲染器，welcome 在没有问答时显示
func NewMessageRenderer(styles *MessageStyles, welcome string) *MessageRenderer {
	if styles == nil {
		styles = DefaultMessageStyles()
	}

	// 初始化 Markdown 渲染器 (Dracula 主题)
	markdownRenderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0), // 禁用自动换行，由外部控制
	)
	return &MessageRenderer{
		markdownRenderer: markdownRenderer,
		styles:           styles,
		icons:            DefaultIcons(),
		renderedCache:    make(map[int]string),
		welcome:          welcome,
	}
}

// SetViewportWidth 设置视口宽度
func (r *MessageRenderer) SetViewportWidth(width int) {
	r.viewportWidth = width
}

// RenderExchanges 渲染所有问答
func (r *MessageRenderer) RenderExchanges(exchanges []rag.Exchange) string {
	if len(exchanges) == 0 {
		return r.styles.System.Render(r.welcome)
	}

	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		// 进行中的问答不缓存
		if !ex.Done() {
			parts = append(parts, r.RenderExchange(ex))
			continue
		}
		rendered, ok := r.renderedCache[ex.ID]
		if !ok {
			rendered = r.RenderExchange(ex)
			r.renderedCache[ex.ID] = rendered
		}
		parts = append(parts, rendered)
	}

	content := strings.Join(parts, "\n\n")

	// 包装内容以适应宽度
	if r.viewportWidth > 0 {
		return lipgloss.NewStyle().Width(r.viewportWidth).Render(content)
	}
	return content
}

// RenderExchange 渲染单条问答：问题、回答和来源，或错误
func (r *MessageRenderer) RenderExchange(ex rag.Exchange) string {
	parts := []string{r.styles.User.Render("You:") + " " + ex.Query}

	switch {
	case !ex.Done():
		parts = append(parts, r.styles.System.Render(r.icons.Pending+" searching the index"))

	case ex.Err != nil:
		parts = append(parts, r.styles.Error.Render(r.icons.Error+" Error: ")+ex.Err.Error())

	case ex.Result != nil:
		parts = append(parts, r.styles.Answer.Render("Answer:")+"\n"+r.renderMarkdown(ex.Result.Answer))
		parts = append(parts, r.renderSources(ex.Result.Sources))
		parts = append(parts, r.styles.Meta.Render(
			fmt.Sprintf("%s %s", r.icons.Clock, FormatDuration(ex.Finished.Sub(ex.Started)))))
	}

	return strings.Join(parts, "\n")
}

// renderSources 渲染来源列表，保持检索顺序
func (r *MessageRenderer) renderSources(sources []string) string {
	lines := []string{r.styles.Sources.Render("Sources:")}
	if len(sources) == 0 {
		lines = append(lines, r.styles.Indent.Render(r.styles.System.Render("(none)")))
	}
	for _, s := range sources {
		lines = append(lines, r.styles.Indent.Render("- "+r.icons.Source+" "+r.styles.Source.Render(s)))
	}
	return strings.Join(lines, "\n")
}

// renderMarkdown 渲染 Markdown 内容
func (r *MessageRenderer) renderMarkdown(content string) string {
	if r.markdownRenderer == nil {
		return content
	}
	rendered, err := r.markdownRenderer.Render(content)
	if err != nil {
		// 渲染失败，返回原始内容
		return content
	}
	// 去除首尾空白（glamour 会添加前后换行）
	return strings.TrimSpace(rendered)
}
