package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mental-care-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-raw", string(body))
		_, _ = w.Write([]byte("extracted text"))
	}))
	defer srv.Close()

	c := NewClient(config.TikaConfig{ServerURL: srv.URL})
	text, err := c.ExtractText(context.Background(), strings.NewReader("%PDF-raw"), "dsm5.pdf")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)
}

func TestExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(config.TikaConfig{ServerURL: srv.URL})
	_, err := c.ExtractText(context.Background(), strings.NewReader("x"), "a.docx")
	assert.Error(t, err)
}

func TestExtractText_NotConfigured(t *testing.T) {
	c := NewClient(config.TikaConfig{})
	_, err := c.ExtractText(context.Background(), strings.NewReader("x"), "a.pdf")
	assert.Error(t, err)
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "application/octet-stream", detectMimeType("noext"))
	assert.Equal(t, "application/pdf", detectMimeType("x.pdf"))
}
