package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBlacklist 记录已登出的 token，直到其自然过期。
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

type redisTokenBlacklist struct {
	redisClient *redis.Client
}

// NewRedisTokenBlacklist 使用 blacklist:<token> 键实现黑名单。
func NewRedisTokenBlacklist(redisClient *redis.Client) TokenBlacklist {
	return &redisTokenBlacklist{redisClient: redisClient}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

func (b *redisTokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.redisClient.Set(ctx, blacklistKey(token), 1, ttl).Err()
}

func (b *redisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.redisClient.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// memoryTokenBlacklist 本地后端使用的进程内黑名单。
type memoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenBlacklist 创建进程内黑名单，重启后清空。
func NewMemoryTokenBlacklist() TokenBlacklist {
	return &memoryTokenBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *memoryTokenBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for t, exp := range b.entries {
		if !exp.After(now) {
			delete(b.entries, t)
		}
	}
	b.entries[token] = now.Add(ttl)
	return nil
}

func (b *memoryTokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[token]
	return ok && exp.After(b.now()), nil
}
