package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mental-care-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ChatStore 定义了对话记忆的操作接口，按会话键保存有序消息。
type ChatStore interface {
	Append(ctx context.Context, sessionKey string, msg model.ChatMessage) error
	Messages(ctx context.Context, sessionKey string) ([]model.ChatMessage, error)
}

type redisChatStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisChatStore 每个会话键对应一个 Redis list，每次追加都刷新 TTL。
func NewRedisChatStore(redisClient *redis.Client, ttl time.Duration) ChatStore {
	return &redisChatStore{redisClient: redisClient, ttl: ttl}
}

// Append 追加一条消息并刷新过期时间。
func (r *redisChatStore) Append(ctx context.Context, sessionKey string, msg model.ChatMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	pipe := r.redisClient.TxPipeline()
	pipe.RPush(ctx, sessionKey, jsonData)
	if r.ttl > 0 {
		pipe.Expire(ctx, sessionKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// Messages 从 Redis 获取完整的对话记录，按写入顺序。
func (r *redisChatStore) Messages(ctx context.Context, sessionKey string) ([]model.ChatMessage, error) {
	items, err := r.redisClient.LRange(ctx, sessionKey, 0, -1).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// jsonChatStore 把所有会话保存在一个 {sessionKey: [messages]} 的 JSON 文件中，每次追加整体重写。
type jsonChatStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONChatStore 基于本地 chat_store.json 创建 ChatStore。
func NewJSONChatStore(path string) ChatStore {
	return &jsonChatStore{path: path}
}

func (s *jsonChatStore) load() (map[string][]model.ChatMessage, error) {
	blob := make(map[string][]model.ChatMessage)
	if err := readJSONFile(s.path, &blob); err != nil {
		return nil, err
	}
	if blob == nil {
		blob = make(map[string][]model.ChatMessage)
	}
	return blob, nil
}

func (s *jsonChatStore) Append(_ context.Context, sessionKey string, msg model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load()
	if err != nil {
		return err
	}
	blob[sessionKey] = append(blob[sessionKey], msg)
	return writeJSONFile(s.path, blob)
}

func (s *jsonChatStore) Messages(_ context.Context, sessionKey string) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load()
	if err != nil {
		return nil, err
	}
	messages := blob[sessionKey]
	if messages == nil {
		return []model.ChatMessage{}, nil
	}
	return messages, nil
}
