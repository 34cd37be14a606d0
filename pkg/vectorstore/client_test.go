package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return New(config.VectorStoreConfig{Host: u.Hostname(), Port: port, Timeout: time.Second})
}

func TestUpsert_Success(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/code-patterns/points", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	err := c.Upsert(context.Background(), "code-patterns", []Point{{ID: "1", Payload: map[string]any{"content": "x"}}})
	require.NoError(t, err)
}

func TestUpsert_NonOKStatus_WrapsErrUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Upsert(context.Background(), "code-patterns", []Point{{ID: "1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestScroll_ReturnsPointsAndOffset(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/discussions/points/scroll", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"points": [{"id": "a", "payload": {"content_hash": "abc"}}], "next_page_offset": "a"}`))
	})

	result, err := c.Scroll(context.Background(), "discussions", &Filter{Must: []FieldCondition{{Key: "content_hash", Match: "abc"}}}, 1, "")
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
	assert.Equal(t, "a", result.Points[0].ID)
	assert.Equal(t, "a", result.NextOffset)
}

func TestQueryPoints_ReturnsScoredPoints(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/code-patterns/points/query", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"points": [{"id": "p1", "score": 0.95, "payload": {}}]}`))
	})

	points, err := c.QueryPoints(context.Background(), "code-patterns", QueryRequest{
		Query: []float32{0.1, 0.2}, Limit: 5, HNSWEf: 64, Formula: ScoreRef{},
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.95, points[0].Score)
}

func TestQueryPoints_SendsMissingStoredAtDefault(t *testing.T) {
	var captured map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"points": []}`))
	})

	_, err := c.QueryPoints(context.Background(), "code-patterns", QueryRequest{
		Query: []float32{0.1}, Limit: 5, Formula: ScoreRef{},
	})
	require.NoError(t, err)

	query, ok := captured["query"].(map[string]any)
	require.True(t, ok)
	defaults, ok := query["defaults"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2020-01-01T00:00:00Z", defaults["stored_at"])
}

func TestCheckHealth(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		assert.True(t, c.CheckHealth(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		c := New(config.VectorStoreConfig{Host: "127.0.0.1", Port: 1, Timeout: 200 * time.Millisecond})
		assert.False(t, c.CheckHealth(context.Background()))
	})
}

func TestCreateGroupIDIndex_PropagatesFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/code-patterns/index", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.CreateGroupIDIndex(context.Background(), "code-patterns")
	require.Error(t, err)
}
