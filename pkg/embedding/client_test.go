package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mental-care-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.EqualValues(t, 8, body["dimensions"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimensions: 8})
	vec, err := client.CreateEmbedding(context.Background(), "xin chào")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestCreateEmbedding_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-ada-002"})
	_, err := client.CreateEmbedding(context.Background(), "x")
	assert.Error(t, err)
}
