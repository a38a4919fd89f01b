package repository

import (
	"time"

	"mental-care-go/internal/config"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Stores 汇总一种存储后端下的全部仓库实现。Transcripts 在本地后端为 nil。
type Stores struct {
	Users       UserRepository
	Scores      ScoreRepository
	Chats       ChatStore
	Transcripts TranscriptRepository
	Blacklist   TokenBlacklist
}

// NewLocalStores 使用本地 JSON 文件作为后端。
func NewLocalStores(cfg config.LocalStorageConfig) *Stores {
	return &Stores{
		Users:     NewJSONUserRepository(cfg.LocalPath(cfg.UsersFile)),
		Scores:    NewJSONScoreRepository(cfg.LocalPath(cfg.ScoresFile)),
		Chats:     NewJSONChatStore(cfg.LocalPath(cfg.ChatStoreFile)),
		Blacklist: NewMemoryTokenBlacklist(),
	}
}

// NewRemoteStores 使用 MySQL 与 Redis 作为后端。
func NewRemoteStores(db *gorm.DB, rdb *redis.Client, memCfg config.MemoryConfig) *Stores {
	return &Stores{
		Users:       NewUserRepository(db),
		Scores:      NewScoreRepository(db),
		Chats:       NewRedisChatStore(rdb, time.Duration(memCfg.TTLSeconds)*time.Second),
		Transcripts: NewTranscriptRepository(db),
		Blacklist:   NewRedisTokenBlacklist(rdb),
	}
}
