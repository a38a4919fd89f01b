package agent

import (
	"context"
	"errors"
	"fmt"

	"mental-care-go/internal/model"
	"mental-care-go/pkg/llm"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/metrics"
)

// DefaultMaxToolRounds 是单轮对话中工具调用的最大轮数。
const DefaultMaxToolRounds = 5

// ToolCallRecord 记录一次工具调用及其结果。
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Output    string `json:"output"`
	Err       string `json:"error,omitempty"`
}

// Result 是一次 Chat 的结果。
type Result struct {
	Reply     string           `json:"reply"`
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`
}

// Agent 在 LLM 与工具之间循环，直到模型给出文本回复。
type Agent struct {
	client    llm.Client
	tools     map[string]Tool
	specs     []llm.ToolSpec
	maxRounds int
	gen       *llm.GenerationParams
}

// New 创建 Agent。工具名重复时后者覆盖前者。
func New(client llm.Client, tools []Tool, maxRounds int, gen *llm.GenerationParams) *Agent {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	a := &Agent{client: client, tools: make(map[string]Tool), maxRounds: maxRounds, gen: gen}
	for _, t := range tools {
		if _, dup := a.tools[t.Name()]; !dup {
			a.specs = append(a.specs, llm.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
		}
		a.tools[t.Name()] = t
	}
	return a
}

// Chat 以系统提示词、记忆窗口和本次用户消息发起对话。
func (a *Agent) Chat(ctx context.Context, systemPrompt string, window []model.ChatMessage, userMessage string) (*Result, error) {
	messages := make([]llm.Message, 0, len(window)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range window {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	result := &Result{}
	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.client.Chat(ctx, llm.ChatRequest{Messages: messages, Tools: a.specs, Generation: a.gen})
		if err != nil {
			return nil, err
		}
		if len(resp.ToolCalls) == 0 {
			result.Reply = resp.Content
			return result, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			record := a.invoke(ctx, call)
			result.ToolCalls = append(result.ToolCalls, record)
			content := record.Output
			if record.Err != "" {
				content = "Lỗi: " + record.Err
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: content, ToolCallID: call.ID})
		}
	}

	log.Warnf("[Agent] 工具调用超过 %d 轮，要求模型直接回复", a.maxRounds)
	resp, err := a.client.Chat(ctx, llm.ChatRequest{Messages: messages, Generation: a.gen})
	if err != nil {
		return nil, err
	}
	if resp.Content == "" {
		return nil, errors.New("模型未给出回复")
	}
	result.Reply = resp.Content
	return result, nil
}

func (a *Agent) invoke(ctx context.Context, call llm.ToolCall) ToolCallRecord {
	record := ToolCallRecord{Name: call.Name, Arguments: call.Arguments}
	tool, ok := a.tools[call.Name]
	if !ok {
		record.Err = fmt.Sprintf("không có công cụ %q", call.Name)
		log.Warnf("[Agent] 模型请求了未知工具: %s", call.Name)
		return record
	}
	metrics.ToolCalls.WithLabelValues(call.Name).Inc()
	out, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		record.Err = err.Error()
		log.Warnf("[Agent] 工具 %s 执行失败: %v", call.Name, err)
		return record
	}
	log.Infof("[Agent] 工具 %s 执行成功", call.Name)
	record.Output = out
	return record
}
