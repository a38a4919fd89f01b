// Package vectorstore 提供文档分块的向量索引：本地文件实现与 Elasticsearch 实现。
package vectorstore

import (
	"context"
	"math"

	"mental-care-go/internal/model"
)

// Index 是向量索引的统一接口。Upsert 以 chunk id 为键，重复写入会覆盖；
// 文档重新入库前先 DeleteDoc，避免旧版本多出的分块残留。
type Index interface {
	Upsert(ctx context.Context, chunks []model.DocumentChunk) error
	DeleteDoc(ctx context.Context, docID string) error
	Query(ctx context.Context, vector []float32, k int) ([]model.ScoredChunk, error)
}

// cosine 计算余弦相似度，任一向量为零向量或维度不一致时返回 0。
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
