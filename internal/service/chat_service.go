package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mental-care-go/internal/agent"
	"mental-care-go/internal/model"
	"mental-care-go/internal/repository"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/metrics"
)

// GreetingMessage 是对话为空时展示的开场白。
const GreetingMessage = "Chào bạn, mình sẽ giúp bạn chăm sóc sức khỏe tinh thần. Hãy nói chuyện với mình để bắt đầu."

// 聊天相关的哨兵错误
var (
	ErrEmptyMessage  = errors.New("消息不能为空")
	ErrAIUnavailable = errors.New("AI 服务暂时不可用")
)

// Responder 根据系统提示、记忆窗口和用户消息生成回复，由 agent.Agent 实现。
type Responder interface {
	Chat(ctx context.Context, systemPrompt string, window []model.ChatMessage, userMessage string) (*agent.Result, error)
}

// TurnResult 是一轮对话的结果。
type TurnResult struct {
	Reply     model.ChatMessage      `json:"reply"`
	ToolCalls []agent.ToolCallRecord `json:"toolCalls,omitempty"`
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	Turn(ctx context.Context, session *model.Session, message string) (*TurnResult, error)
	History(ctx context.Context, session *model.Session) ([]model.ChatMessage, error)
}

type chatService struct {
	memory      *MemoryService
	responder   Responder
	transcripts repository.TranscriptRepository
}

// NewChatService 创建一个新的 ChatService 实例。transcripts 可为 nil。
func NewChatService(memory *MemoryService, responder Responder, transcripts repository.TranscriptRepository) ChatService {
	return &chatService{memory: memory, responder: responder, transcripts: transcripts}
}

// Turn 执行一轮对话：先记录用户消息，再截取记忆窗口调用 Agent，最后记录回复。
// Agent 失败时用户消息保留在记忆中。
func (s *chatService) Turn(ctx context.Context, session *model.Session, message string) (*TurnResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	key := session.MemoryKey()

	userMsg := model.NewChatMessage(model.RoleUserMessage, message)
	if err := s.memory.Append(ctx, key, userMsg); err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("保存用户消息失败: %w", err)
	}
	s.recordTranscript(ctx, session, userMsg)

	window, err := s.memory.Window(ctx, key, 0)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("读取对话记忆失败: %w", err)
	}
	// 本条消息由 Agent 单独追加
	if n := len(window); n > 0 && sameMessage(window[n-1], userMsg) {
		window = window[:n-1]
	}

	result, err := s.responder.Chat(agent.WithSession(ctx, session), agent.SystemPrompt(session.UserInfo), window, message)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		log.Errorf("[ChatService] Agent 调用失败, username: %s, error: %v", session.Username, err)
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	reply := model.NewChatMessage(model.RoleAssistantMessage, result.Reply)
	if err := s.memory.Append(ctx, key, reply); err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("保存助手回复失败: %w", err)
	}
	s.recordTranscript(ctx, session, reply)

	metrics.ChatTurns.WithLabelValues("ok").Inc()
	return &TurnResult{Reply: reply, ToolCalls: result.ToolCalls}, nil
}

// History 返回会话记忆中的消息；为空时返回开场白。
func (s *chatService) History(ctx context.Context, session *model.Session) ([]model.ChatMessage, error) {
	msgs, err := s.memory.Messages(ctx, session.MemoryKey())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []model.ChatMessage{model.NewChatMessage(model.RoleAssistantMessage, GreetingMessage)}, nil
	}
	return msgs, nil
}

// recordTranscript 写入完整聊天记录，失败只记日志。
func (s *chatService) recordTranscript(ctx context.Context, session *model.Session, msg model.ChatMessage) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.Append(ctx, session.SessionID, msg); err != nil {
		log.Errorf("[ChatService] 保存聊天记录失败, session: %s, error: %v", session.SessionID, err)
	}
}

func sameMessage(a, b model.ChatMessage) bool {
	return a.Role == b.Role && a.Content == b.Content && a.Timestamp.Equal(b.Timestamp)
}
