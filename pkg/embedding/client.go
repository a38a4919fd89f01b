// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"mental-care-go/internal/config"
	"mental-care-go/pkg/log"

	openai "github.com/sashabaranov/go-openai"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *openai.Client
}

// NewClient creates a new embedding client for an OpenAI-compatible endpoint.
func NewClient(cfg config.EmbeddingConfig) Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAICompatibleClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// CreateEmbedding 获取单段文本的向量。
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Debugf("[EmbeddingClient] 开始调用 Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.cfg.Model),
	}
	// ada-002 不支持 dimensions 参数
	if c.cfg.Dimensions > 0 && openai.EmbeddingModel(c.cfg.Model) != openai.AdaEmbeddingV2 {
		req.Dimensions = c.cfg.Dimensions
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, errors.New("received empty embedding from api")
	}
	return resp.Data[0].Embedding, nil
}
