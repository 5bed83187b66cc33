package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail-ops/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req encodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vec := make([]float32, dim)
			vec[0] = 1 // unit vector
			vecs[i] = vec
		}
		json.NewEncoder(w).Encode(encodeResponse{Model: req.Model, Embeddings: vecs})
	}))
}

func TestEncodeReturnsVector(t *testing.T) {
	srv := encodeServer(t, 384)
	defer srv.Close()

	client := NewClient(srv.URL, "test-model")
	vec, err := client.Encode(context.Background(), "運費說明")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
}

func TestEncodeUnreachableService(t *testing.T) {
	srv := encodeServer(t, 8)
	srv.Close() // every request now fails at the dial

	client := NewClient(srv.URL, "test-model")
	_, err := client.Encode(context.Background(), "q")
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestEncodeNon200IsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-model")
	_, err := client.Encode(context.Background(), "q")
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestLoadPinsDimension(t *testing.T) {
	srv := encodeServer(t, 384)
	defer srv.Close()

	handle, err := Load(context.Background(), NewClient(srv.URL, "test-model"), 384)
	require.NoError(t, err)
	assert.Equal(t, 384, handle.Dim())

	vec, err := handle.Encode(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
}

func TestLoadRejectsDimensionMismatch(t *testing.T) {
	srv := encodeServer(t, 512)
	defer srv.Close()

	_, err := Load(context.Background(), NewClient(srv.URL, "test-model"), 384)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}
