package pipeline

import (
	"context"
	"fmt"
	"strings"

	"mental-care-go/pkg/llm"
)

// SummaryPromptTemplate 为单个分块生成摘要的提示词，%s 处填入分块内容。
const SummaryPromptTemplate = `Đây là nội dung của một đoạn tài liệu:
%s

Hãy tóm tắt ngắn gọn các chủ đề và thực thể chính của đoạn trên.
Tóm tắt: `

// SummaryExtractor 调用 LLM 为分块生成自身摘要。
type SummaryExtractor struct {
	client llm.Client
	model  string
	params *llm.GenerationParams
}

// NewSummaryExtractor 创建摘要提取器，model 仅用于缓存键。
func NewSummaryExtractor(client llm.Client, model string, params *llm.GenerationParams) *SummaryExtractor {
	return &SummaryExtractor{client: client, model: model, params: params}
}

// Params 返回参与缓存键计算的参数描述。
func (e *SummaryExtractor) Params() string {
	return "model=" + e.model
}

// Summarize 返回分块摘要。
func (e *SummaryExtractor) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := e.client.Chat(ctx, llm.ChatRequest{
		Messages:   []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(SummaryPromptTemplate, text)}},
		Generation: e.params,
	})
	if err != nil {
		return "", fmt.Errorf("生成分块摘要失败: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
