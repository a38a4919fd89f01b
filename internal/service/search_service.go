package service

import (
	"context"
	"fmt"

	"mental-care-go/internal/model"
	"mental-care-go/internal/vectorstore"
	"mental-care-go/pkg/embedding"
	"mental-care-go/pkg/log"
)

// SearchService 接口定义了知识库检索操作。
type SearchService interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.ScoredChunk, error)
}

type searchService struct {
	embeddingClient embedding.Client
	index           vectorstore.Index
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, index vectorstore.Index) SearchService {
	return &searchService{embeddingClient: embeddingClient, index: index}
}

// Retrieve 向量化查询后在索引中取最相似的 k 个分块。
func (s *searchService) Retrieve(ctx context.Context, query string, k int) ([]model.ScoredChunk, error) {
	log.Infof("[SearchService] 开始检索, query: '%s', topK: %d", query, k)
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	results, err := s.index.Query(ctx, queryVector, k)
	if err != nil {
		log.Errorf("[SearchService] 向量检索失败: %v", err)
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	log.Infof("[SearchService] 检索完成, 命中 %d 个分块", len(results))
	return results, nil
}
