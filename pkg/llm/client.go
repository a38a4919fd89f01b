// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"

	"mental-care-go/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// 消息角色
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// Message 表示一条角色消息
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall 是模型请求的一次函数调用。
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec 描述可供模型调用的函数，Parameters 为 JSON Schema。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  any
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// ChatRequest 一次非流式补全请求。
type ChatRequest struct {
	Messages   []Message
	Tools      []ToolSpec
	Generation *GenerationParams
}

// ChatResponse 模型返回：文本内容或工具调用。
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Client defines the interface for an LLM client.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *openai.Client
}

// NewClient 基于 OpenAI 兼容接口创建客户端。
func NewClient(cfg config.LLMConfig) Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Chat 调用 chat completions；当传入 Tools 时由模型决定是否调用工具。
func (c *openAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	oreq := openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	for _, t := range req.Tools {
		oreq.Tools = append(oreq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	c.applyGeneration(&oreq, req.Generation)

	resp, err := c.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat api returned no choices")
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// applyGeneration 传参优先，其次取配置中的非零值。
func (c *openAIClient) applyGeneration(req *openai.ChatCompletionRequest, gen *GenerationParams) {
	if gen == nil {
		gen = ParamsFromConfig(c.cfg.Generation)
	}
	if gen == nil {
		return
	}
	if gen.Temperature != nil {
		req.Temperature = float32(*gen.Temperature)
	}
	if gen.TopP != nil {
		req.TopP = float32(*gen.TopP)
	}
	if gen.MaxTokens != nil {
		req.MaxCompletionTokens = *gen.MaxTokens
	}
}

// ParamsFromConfig 把配置中的非零值转换为 GenerationParams，全为零时返回 nil。
func ParamsFromConfig(cfg config.LLMGenerationConfig) *GenerationParams {
	var gp GenerationParams
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		gp.Temperature = &t
	}
	if cfg.TopP != 0 {
		p := cfg.TopP
		gp.TopP = &p
	}
	if cfg.MaxTokens != 0 {
		m := cfg.MaxTokens
		gp.MaxTokens = &m
	}
	if gp.Temperature == nil && gp.TopP == nil && gp.MaxTokens == nil {
		return nil
	}
	return &gp
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		om := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, om)
	}
	return out
}
