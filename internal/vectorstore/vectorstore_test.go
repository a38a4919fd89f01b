package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mental-care-go/internal/config"
	"mental-care-go/internal/model"
	"mental-care-go/pkg/es"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id string, vec ...float32) model.DocumentChunk {
	return model.DocumentChunk{ChunkID: id, DocID: "dsm5.pdf", Text: "text " + id, Embedding: vec}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 0}))
}

func TestLocalIndex_QueryTopK(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenLocalIndex(t.TempDir(), "vector")
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{
		chunk("a", 1, 0, 0),
		chunk("b", 0.9, 0.1, 0),
		chunk("c", 0, 1, 0),
		chunk("d", 0, 0, 1),
	}))

	res, err := idx.Query(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "a", res[0].Chunk.ChunkID)
	assert.Equal(t, "b", res[1].Chunk.ChunkID)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
	assert.GreaterOrEqual(t, res[1].Score, res[2].Score)

	few, err := idx.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, few, 4)
}

func TestLocalIndex_UpsertOverwritesAndPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{chunk("a", 1, 0)}))
	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{chunk("a", 0, 1)}))
	assert.Equal(t, 1, idx.Len())

	reopened, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	res, err := reopened.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, "text a", res[0].Chunk.Text)

	assert.FileExists(t, filepath.Join(dir, "vector.json"))
	assert.FileExists(t, filepath.Join(dir, "docstore.json"))

	other, err := OpenLocalIndex(dir, "another")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}

func TestLocalIndex_RejectsMissingEmbedding(t *testing.T) {
	idx, err := OpenLocalIndex(t.TempDir(), "vector")
	require.NoError(t, err)
	assert.Error(t, idx.Upsert(context.Background(), []model.DocumentChunk{{ChunkID: "x"}}))
}

func TestLocalIndex_CorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vector.json"), []byte("{"), 0o644))
	idx, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestESIndex_Query(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"hits":{"hits":[{"_score":0.93,"_source":{"chunk_id":"dsm5.pdf_0","doc_id":"dsm5.pdf","chunk_index":0,"text_content":"Rối loạn trầm cảm"}}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := es.NewClient(config.ElasticsearchConfig{Addresses: srv.URL})
	require.NoError(t, err)
	idx := NewESIndex(client, "dsm5_vector", "vector", "text-embedding-ada-002")

	res, err := idx.Query(context.Background(), []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "dsm5.pdf_0", res[0].Chunk.ChunkID)
	assert.Equal(t, "Rối loạn trầm cảm", res[0].Chunk.Text)
	assert.InDelta(t, 0.93, res[0].Score, 1e-9)

	knn, ok := body["knn"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, knn["k"])
}

func TestLocalIndex_DeleteDocBeforeReingest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)

	other := model.DocumentChunk{ChunkID: "guide.md_0", DocID: "guide.md", Text: "hướng dẫn", Embedding: []float32{0, 1}}
	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{other}))
	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{
		chunk("dsm5.pdf_0", 1, 0), chunk("dsm5.pdf_1", 1, 0), chunk("dsm5.pdf_2", 1, 0),
		chunk("dsm5.pdf_3", 1, 0), chunk("dsm5.pdf_4", 1, 0),
	}))
	assert.Equal(t, 6, idx.Len())

	require.NoError(t, idx.DeleteDoc(ctx, "dsm5.pdf"))
	require.NoError(t, idx.Upsert(ctx, []model.DocumentChunk{chunk("dsm5.pdf_0", 1, 0), chunk("dsm5.pdf_1", 1, 0)}))
	assert.Equal(t, 3, idx.Len())

	reopened, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())
	res, err := reopened.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	for _, r := range res {
		assert.NotContains(t, []string{"dsm5.pdf_2", "dsm5.pdf_3", "dsm5.pdf_4"}, r.Chunk.ChunkID)
	}

	require.NoError(t, idx.DeleteDoc(ctx, "missing.pdf"))
	assert.Equal(t, 3, idx.Len())
}

func TestLocalIndex_SeesChunksWrittenByAnotherProcess(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	server, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)
	assert.Equal(t, 0, server.Len())

	ingest, err := OpenLocalIndex(dir, "vector")
	require.NoError(t, err)
	require.NoError(t, ingest.Upsert(ctx, []model.DocumentChunk{chunk("dsm5.pdf_0", 1, 0)}))

	res, err := server.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "dsm5.pdf_0", res[0].Chunk.ChunkID)
	assert.Equal(t, 1, server.Len())
}

func TestESIndex_DeleteDoc(t *testing.T) {
	var body map[string]interface{}
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_delete_by_query") {
			path = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"deleted":3}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := es.NewClient(config.ElasticsearchConfig{Addresses: srv.URL})
	require.NoError(t, err)
	idx := NewESIndex(client, "dsm5_vector", "vector", "text-embedding-ada-002")

	require.NoError(t, idx.DeleteDoc(context.Background(), "dsm5.pdf"))
	assert.Equal(t, "/dsm5_vector/_delete_by_query", path)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"doc_id":"dsm5.pdf"`)
	assert.Contains(t, string(raw), `"index_id":"vector"`)
}
