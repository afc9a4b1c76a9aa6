package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"autosense/internal/errors"
)

func TestHashingEmbedderIsNormalizedAndDeterministic(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, DefaultDimension, e.Dimension())

	a, err := e.Embed("Total Revenue")
	require.NoError(t, err)
	b, _ := e.Embed("total revenue")
	assert.Equal(t, a, b, "embedding is case-insensitive")
	assert.InDelta(t, 1.0, floats.Norm(a, 2), 1e-12)
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	vec, err := NewHashingEmbedder(16).Embed("  ,, ")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	assert.Equal(t, 0.0, floats.Norm(vec, 2))
}

func TestHashingEmbedderSharedTokensAreSimilar(t *testing.T) {
	e := NewHashingEmbedder(256)
	q, _ := e.Embed("revenue")
	same, _ := e.Embed("revenue")
	other, _ := e.Embed("zebra")
	assert.InDelta(t, 1.0, floats.Dot(q, same), 1e-12)
	assert.Less(t, floats.Dot(q, other), 1.0)
}

func TestOpenAIEmbedderMemoizes(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.6, 0.8}}},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(Config{APIKey: "k", BaseURL: srv.URL, Dim: 2})
	require.NoError(t, err)

	v1, err := e.Embed("revenue")
	require.NoError(t, err)
	v2, err := e.Embed("revenue")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.8}, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	_, err := NewOpenAIEmbedder(Config{})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = e.Embed("revenue")
	assert.ErrorContains(t, err, "429")
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	e, err = NewOpenAIEmbedder(Config{APIKey: "k", BaseURL: down.URL})
	require.NoError(t, err)
	_, err = e.Embed("revenue")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
}
