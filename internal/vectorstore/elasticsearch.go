package vectorstore

import (
	"context"
	"fmt"

	"mental-care-go/internal/model"
	"mental-care-go/pkg/es"
	"mental-care-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESIndex 把分块存放在 Elasticsearch 的 dense_vector 字段上，使用 kNN 检索。
type ESIndex struct {
	client       *elasticsearch.Client
	indexName    string
	indexID      string
	modelVersion string
}

// NewESIndex 创建基于 Elasticsearch 的向量索引。
func NewESIndex(client *elasticsearch.Client, indexName, indexID, modelVersion string) *ESIndex {
	return &ESIndex{client: client, indexName: indexName, indexID: indexID, modelVersion: modelVersion}
}

func (i *ESIndex) Upsert(ctx context.Context, chunks []model.DocumentChunk) error {
	for _, c := range chunks {
		doc := model.EsChunkDocument{
			ChunkID:      c.ChunkID,
			DocID:        c.DocID,
			ChunkIndex:   c.Index,
			IndexID:      i.indexID,
			TextContent:  c.Text,
			Summary:      c.Summary,
			Vector:       c.Embedding,
			ModelVersion: i.modelVersion,
		}
		if err := es.IndexDocument(ctx, i.client, i.indexName, doc); err != nil {
			return fmt.Errorf("索引分块 %s 失败: %w", c.ChunkID, err)
		}
	}
	log.Infof("[VectorStore] 已写入 %d 个分块到 Elasticsearch 索引 %s", len(chunks), i.indexName)
	return nil
}

func (i *ESIndex) DeleteDoc(ctx context.Context, docID string) error {
	deleted, err := es.DeleteByDocID(ctx, i.client, i.indexName, i.indexID, docID)
	if err != nil {
		return fmt.Errorf("删除文档 %s 的旧分块失败: %w", docID, err)
	}
	if deleted > 0 {
		log.Infof("[VectorStore] 已从 Elasticsearch 删除文档 %s 的 %d 个旧分块", docID, deleted)
	}
	return nil
}

func (i *ESIndex) Query(ctx context.Context, vector []float32, k int) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return []model.ScoredChunk{}, nil
	}
	hits, err := es.KnnSearch(ctx, i.client, i.indexName, i.indexID, vector, k)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.ScoredChunk{
			Chunk: model.DocumentChunk{
				ChunkID: h.Source.ChunkID,
				DocID:   h.Source.DocID,
				Index:   h.Source.ChunkIndex,
				Text:    h.Source.TextContent,
				Summary: h.Source.Summary,
			},
			Score: h.Score,
		})
	}
	return out, nil
}
