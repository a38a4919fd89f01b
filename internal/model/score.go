package model

import (
	"encoding/json"
	"strings"
	"time"
)

// 四个合法的心情评分标签
const (
	ScorePoor      = "kém"
	ScoreAverage   = "trung bình"
	ScoreGood      = "khá"
	ScoreExcellent = "tốt"
)

// 内容缺省值
const (
	DefaultScoreContent    = "Không có mô tả"
	DefaultScoreTotalGuess = "Không có dữ liệu"
)

var scoreOrdinals = map[string]int{
	ScorePoor:      1,
	ScoreAverage:   2,
	ScoreGood:      3,
	ScoreExcellent: 4,
}

var scoreColors = map[string]string{
	ScorePoor:      "red",
	ScoreAverage:   "orange",
	ScoreGood:      "yellow",
	ScoreExcellent: "green",
}

// ScoreLabels 按序号返回全部合法标签。
func ScoreLabels() []string {
	return []string{ScorePoor, ScoreAverage, ScoreGood, ScoreExcellent}
}

// NormalizeScoreLabel 去除首尾空白并转小写。
func NormalizeScoreLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ScoreToNumeric 将标签映射为 1-4，未识别的标签返回 0。
func ScoreToNumeric(label string) int {
	return scoreOrdinals[NormalizeScoreLabel(label)]
}

// IsValidScoreLabel 判断标签是否为四个合法值之一。
func IsValidScoreLabel(label string) bool {
	return ScoreToNumeric(label) != 0
}

// ScoreColor 返回标签在图表中的颜色，未识别返回空串。
func ScoreColor(label string) string {
	return scoreColors[NormalizeScoreLabel(label)]
}

// ScoreEntry 是一条心情评估记录，只追加不修改。
// JSON 字段名与本地 scores.json 的既有格式保持一致。
type ScoreEntry struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Username   string    `gorm:"type:varchar(100);index;not null" json:"username"`
	Time       time.Time `gorm:"index;not null" json:"Time"`
	Score      string    `gorm:"type:varchar(50);not null" json:"Score"`
	Content    string    `gorm:"type:text" json:"Content"`
	TotalGuess string    `gorm:"type:varchar(255)" json:"Total guess"`
}

// UnmarshalJSON 对 Time 字段做宽松解析，兼容旧工具写入的非 RFC3339 时间。
func (e *ScoreEntry) UnmarshalJSON(data []byte) error {
	type plain ScoreEntry
	aux := struct {
		*plain
		Time json.RawMessage `json:"Time"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseScoreTime(aux.Time)
	if err != nil {
		return err
	}
	e.Time = t
	return nil
}

func (ScoreEntry) TableName() string {
	return "score_history"
}
