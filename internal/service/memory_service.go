package service

import (
	"context"

	"mental-care-go/internal/model"
	"mental-care-go/internal/repository"
	"mental-care-go/pkg/tokenizer"
)

// DefaultTokenLimit 是记忆窗口的默认 token 预算。
const DefaultTokenLimit = 3000

// MemoryService 在完整对话记录上截取最近的、满足 token 预算的窗口。
type MemoryService struct {
	store repository.ChatStore
	tok   tokenizer.Tokenizer
	limit int
}

// NewMemoryService 创建记忆服务，limit <= 0 时使用默认预算。
func NewMemoryService(store repository.ChatStore, tok tokenizer.Tokenizer, limit int) *MemoryService {
	if limit <= 0 {
		limit = DefaultTokenLimit
	}
	return &MemoryService{store: store, tok: tok, limit: limit}
}

// Append 记录一条消息。
func (m *MemoryService) Append(ctx context.Context, sessionKey string, msg model.ChatMessage) error {
	return m.store.Append(ctx, sessionKey, msg)
}

// Messages 返回会话的完整记录。
func (m *MemoryService) Messages(ctx context.Context, sessionKey string) ([]model.ChatMessage, error) {
	return m.store.Messages(ctx, sessionKey)
}

// Window 返回累计 token 数不超过 budget 的最长后缀，按时间正序。budget <= 0 时使用默认预算。
func (m *MemoryService) Window(ctx context.Context, sessionKey string, budget int) ([]model.ChatMessage, error) {
	msgs, err := m.store.Messages(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = m.limit
	}
	return TrimToBudget(m.tok, msgs, budget), nil
}

// TrimToBudget 从最旧的一端丢弃消息，直到总 token 数不超过 budget。
func TrimToBudget(tok tokenizer.Tokenizer, msgs []model.ChatMessage, budget int) []model.ChatMessage {
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		n := tokenizer.Count(tok, msgs[i].Content)
		if total+n > budget {
			break
		}
		total += n
		start = i
	}
	return msgs[start:]
}
