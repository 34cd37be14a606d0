package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func testConfig(baseURL string) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		BaseURL:           baseURL,
		ConnectTimeout:    time.Second,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		PoolTimeout:       time.Second,
		MaxKeepaliveConns: 5,
		MaxConns:          5,
		KeepaliveExpiry:   time.Second,
	}
}

func TestEmbed_ReturnsVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [[0.1, 0.2]]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	defer c.Close()

	vecs, err := c.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, float32(0.1), vecs[0][0])
}

func TestEmbed_NonOKStatus_WrapsAsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	defer c.Close()

	_, err := c.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestHealthCheck_ReturnsFalseOnUnreachable(t *testing.T) {
	c := New(testConfig("http://127.0.0.1:1"))
	defer c.Close()
	assert.False(t, c.HealthCheck(context.Background()))
}
