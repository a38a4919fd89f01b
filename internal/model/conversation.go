package model

import "time"

// 消息角色
const (
	RoleUserMessage      = "user"
	RoleAssistantMessage = "assistant"
)

// ChatMessage 代表一条对话消息，写入后不可变。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage 以当前 UTC 时间创建消息。
func NewChatMessage(role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// TranscriptMessage 是完整聊天记录在数据库中的一行，对应 chats/{session_id}/messages。
type TranscriptMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(150);index:idx_session_time;not null" json:"sessionId"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"index:idx_session_time;not null" json:"timestamp"`
}

func (TranscriptMessage) TableName() string {
	return "chat_messages"
}

// SessionKey 由用户名派生对话记忆的会话键。
func SessionKey(username string) string {
	return "chat:" + username
}
