package rag

import "sync"

// defaultHistorySize 默认保留的问答条数
const defaultHistorySize = 50

// History 内存中的问答记录（滑动窗口）
type History struct {
	mu        sync.RWMutex
	exchanges []Exchange
	max       int
}

// NewHistory 创建最多保留 max 条记录的历史
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &History{max: max}
}

// Add 追加一条记录，超过上限时丢弃最旧的
func (h *History) Add(ex Exchange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.exchanges = append(h.exchanges, ex)
	if len(h.exchanges) > h.max {
		h.exchanges = h.exchanges[len(h.exchanges)-h.max:]
	}
}

// List 返回记录副本，避免外部修改
func (h *History) List() []Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Exchange, len(h.exchanges))
	copy(result, h.exchanges)
	return result
}

// Len 当前记录数
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exchanges)
}

// Clear 清空历史
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = nil
}
