package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mental-care-go/internal/model"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// 工具名称
const (
	DSM5ToolName      = "dsm5"
	SaveScoreToolName = "save_score"
)

// Retriever 按语义检索知识库分块。
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.ScoredChunk, error)
}

// ScoreRecorder 记录一次心情评估。
type ScoreRecorder interface {
	Record(ctx context.Context, username, label, content, totalGuess string) (*model.ScoreEntry, error)
}

// DSM5Tool 检索 DSM-5 知识库。
type DSM5Tool struct {
	retriever Retriever
	topK      int
}

// NewDSM5Tool 创建知识库检索工具，每次返回 topK 个分块。
func NewDSM5Tool(retriever Retriever, topK int) *DSM5Tool {
	return &DSM5Tool{retriever: retriever, topK: topK}
}

func (t *DSM5Tool) Name() string { return DSM5ToolName }

func (t *DSM5Tool) Description() string {
	return "Cung cấp các thông tin liên quan đến các bệnh tâm thần theo tiêu chuẩn DSM5."
}

func (t *DSM5Tool) Parameters() any {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {Type: jsonschema.String, Description: "Câu hỏi hoặc triệu chứng cần tra cứu trong DSM5"},
		},
		Required: []string{"query"},
	}
}

func (t *DSM5Tool) Call(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("解析 dsm5 参数失败: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", errors.New("query 不能为空")
	}
	chunks, err := t.retriever.Retrieve(ctx, args.Query, t.topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "Không tìm thấy thông tin liên quan.", nil
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Chunk.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// SaveScoreTool 保存模型对用户心情的评估。
type SaveScoreTool struct {
	recorder ScoreRecorder
}

// NewSaveScoreTool 创建评分保存工具。
func NewSaveScoreTool(recorder ScoreRecorder) *SaveScoreTool {
	return &SaveScoreTool{recorder: recorder}
}

func (t *SaveScoreTool) Name() string { return SaveScoreToolName }

func (t *SaveScoreTool) Description() string {
	return "Lưu kết quả đánh giá sức khỏe tinh thần của người dùng sau khi trò chuyện. " +
		"score là một trong: kém, trung bình, khá, tốt."
}

func (t *SaveScoreTool) Parameters() any {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"score": {
				Type:        jsonschema.String,
				Enum:        model.ScoreLabels(),
				Description: "Mức độ sức khỏe tinh thần",
			},
			"content":     {Type: jsonschema.String, Description: "Mô tả ngắn về tình trạng của người dùng"},
			"total_guess": {Type: jsonschema.String, Description: "Chẩn đoán sơ bộ, nếu có"},
			"username":    {Type: jsonschema.String, Description: "Tên người dùng"},
		},
		Required: []string{"score"},
	}
}

// Call 保存评分。会话存在时始终记到会话的归属键下。
func (t *SaveScoreTool) Call(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Score      string `json:"score"`
		Content    string `json:"content"`
		TotalGuess string `json:"total_guess"`
		Username   string `json:"username"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("解析 save_score 参数失败: %w", err)
	}
	username := args.Username
	if s, ok := SessionFromContext(ctx); ok {
		username = s.Owner()
	}
	if username == "" {
		return "", errors.New("无法确定用户名")
	}
	entry, err := t.recorder.Record(ctx, username, args.Score, args.Content, args.TotalGuess)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Đã lưu kết quả đánh giá: %s.", entry.Score), nil
}
