package repository

import (
	"context"

	"mental-care-go/internal/model"

	"gorm.io/gorm"
)

// TranscriptRepository 永久保存完整聊天记录，不受记忆 TTL 影响。
type TranscriptRepository interface {
	Append(ctx context.Context, sessionID string, msg model.ChatMessage) error
	List(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}

type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository 创建基于 GORM 的聊天记录仓库。
func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &transcriptRepository{db: db}
}

func (r *transcriptRepository) Append(ctx context.Context, sessionID string, msg model.ChatMessage) error {
	row := model.TranscriptMessage{
		SessionID: sessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// List 按时间升序返回某会话的全部消息。
func (r *transcriptRepository) List(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var rows []model.TranscriptMessage
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("timestamp asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ChatMessage{Role: row.Role, Content: row.Content, Timestamp: row.Timestamp})
	}
	return out, nil
}
