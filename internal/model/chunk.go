package model

import "fmt"

// DocumentChunk 是文档切分后的检索单元。
type DocumentChunk struct {
	ChunkID   string    `json:"chunk_id"`
	DocID     string    `json:"doc_id"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ChunkID 由文档 ID 与分块序号组成，保证重复入库时稳定。
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// ScoredChunk 是检索结果：分块及其相似度得分。
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}

// EsChunkDocument 代表存储在 Elasticsearch 中的分块文档结构。
type EsChunkDocument struct {
	ChunkID      string    `json:"chunk_id"`
	DocID        string    `json:"doc_id"`
	ChunkIndex   int       `json:"chunk_index"`
	IndexID      string    `json:"index_id"`
	TextContent  string    `json:"text_content"`
	Summary      string    `json:"summary"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}
