package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mental-care-go/internal/model"
	"mental-care-go/pkg/log"

	"gorm.io/gorm"
)

// ScoreRepository 心情评分记录的存取，只追加。
type ScoreRepository interface {
	Append(ctx context.Context, entry *model.ScoreEntry) error
	FindByUsername(ctx context.Context, username string) ([]model.ScoreEntry, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository 创建基于 GORM 的评分仓库。
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) Append(ctx context.Context, entry *model.ScoreEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *scoreRepository) FindByUsername(ctx context.Context, username string) ([]model.ScoreEntry, error) {
	var entries []model.ScoreEntry
	err := r.db.WithContext(ctx).Where("username = ?", username).Order("time asc").Find(&entries).Error
	return entries, err
}

// jsonScoreRepository 所有用户共用一个 JSON 数组文件，读时按用户名过滤。
// 条目以原始 JSON 保存，单条无法解析时只跳过该条，追加时原样写回。
// 进程内写入由 mu 串行化；多进程并发写时后写者覆盖。
type jsonScoreRepository struct {
	path string
	mu   sync.Mutex
}

// NewJSONScoreRepository 基于本地 scores.json 创建评分仓库。
func NewJSONScoreRepository(path string) ScoreRepository {
	return &jsonScoreRepository{path: path}
}

func (r *jsonScoreRepository) Append(_ context.Context, entry *model.ScoreEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []json.RawMessage
	if err := readJSONFile(r.path, &entries); err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化评分记录失败: %w", err)
	}
	entries = append(entries, raw)
	return writeJSONFile(r.path, entries)
}

func (r *jsonScoreRepository) FindByUsername(_ context.Context, username string) ([]model.ScoreEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []json.RawMessage
	if err := readJSONFile(r.path, &entries); err != nil {
		return nil, err
	}
	out := make([]model.ScoreEntry, 0, len(entries))
	for i, raw := range entries {
		var e model.ScoreEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			log.Warnf("[ScoreRepository] 跳过无法解析的第 %d 条评分记录: %v", i, err)
			continue
		}
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}
