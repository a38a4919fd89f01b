package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"mental-care-go/internal/model"
	"mental-care-go/internal/repository"
	"mental-care-go/pkg/log"
)

// ScoreService 管理心情评分记录。
type ScoreService interface {
	Record(ctx context.Context, username, label, content, totalGuess string) (*model.ScoreEntry, error)
	List(ctx context.Context, username string) ([]model.ScoreEntry, error)
}

type scoreService struct {
	repo repository.ScoreRepository
	now  func() time.Time
}

// NewScoreService 创建评分服务。
func NewScoreService(repo repository.ScoreRepository) ScoreService {
	return &scoreService{repo: repo, now: time.Now}
}

// Record 追加一条评分。标签按提交原样保存，空串和未识别的标签同样落库，只记录告警；
// 图表按标签取序号时再做大小写归一。
func (s *scoreService) Record(ctx context.Context, username, label, content, totalGuess string) (*model.ScoreEntry, error) {
	if !model.IsValidScoreLabel(label) {
		log.Warnf("[ScoreService] 未识别的评分标签, username: %s, score: %q", username, label)
	}
	if strings.TrimSpace(content) == "" {
		content = model.DefaultScoreContent
	}
	if strings.TrimSpace(totalGuess) == "" {
		totalGuess = model.DefaultScoreTotalGuess
	}

	entry := &model.ScoreEntry{
		Username:   username,
		Time:       s.now().UTC(),
		Score:      label,
		Content:    content,
		TotalGuess: totalGuess,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	log.Infof("[ScoreService] 已保存评分, username: %s, score: %s", username, label)
	return entry, nil
}

// List 按时间升序返回用户的全部评分。
func (s *scoreService) List(ctx context.Context, username string) ([]model.ScoreEntry, error) {
	entries, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })
	return entries, nil
}
