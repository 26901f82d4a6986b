package embeddings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/documind/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTEIServer(t *testing.T, handler func(inputs interface{}) [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embed", r.URL.Path)

		var req struct {
			Inputs   interface{} `json:"inputs"`
			Truncate bool        `json:"truncate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)

		_ = json.NewEncoder(w).Encode(handler(req.Inputs))
	}))
}

func TestTEIProvider_EmbedDocuments(t *testing.T) {
	srv := newTEIServer(t, func(inputs interface{}) [][]float32 {
		texts, ok := inputs.([]interface{})
		require.True(t, ok)
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{float32(i), 0.5}
		}
		return vectors
	})
	defer srv.Close()

	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	defer provider.Close()

	vectors, err := provider.EmbedDocuments(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0.5}, vectors[1])
}

func TestTEIProvider_EmbedQuery(t *testing.T) {
	srv := newTEIServer(t, func(inputs interface{}) [][]float32 {
		text, ok := inputs.(string)
		require.True(t, ok)
		require.Equal(t, "what is the penalty", text)
		return [][]float32{{0.1, 0.2, 0.3}}
	})
	defer srv.Close()

	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	defer provider.Close()

	vector, err := provider.EmbedQuery(context.Background(), "what is the penalty")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestTEIProvider_EmptyInput(t *testing.T) {
	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)

	_, err = provider.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}

func TestTEIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = provider.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, embeddings.ErrEmbeddingFailed)
	assert.ErrorContains(t, err, "503")
}

func TestNewTEIProvider_RequiresBaseURL(t *testing.T) {
	_, err := embeddings.NewTEIProvider(embeddings.TEIConfig{})
	assert.ErrorIs(t, err, embeddings.ErrInvalidConfig)
}

func TestTEIProvider_Dimension(t *testing.T) {
	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{
		BaseURL: "http://localhost:1",
		Model:   "BAAI/bge-base-en-v1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, 768, provider.Dimension())
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := embeddings.NewProvider(embeddings.ProviderConfig{Provider: "cohere"})
	assert.ErrorIs(t, err, embeddings.ErrInvalidConfig)
}

func TestNewProvider_TEI(t *testing.T) {
	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: "tei",
		BaseURL:  "http://localhost:1",
		Model:    "sentence-transformers/all-MiniLM-L6-v2",
	})
	require.NoError(t, err)
	assert.Equal(t, 384, provider.Dimension())
}
