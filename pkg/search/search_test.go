package search

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/embedding"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

func newTestEmbedder(handler http.HandlerFunc) (*embedding.Client, func()) {
	srv := httptest.NewServer(handler)
	c := embedding.New(config.EmbeddingConfig{
		BaseURL: srv.URL, ConnectTimeout: time.Second, ReadTimeout: time.Second,
		WriteTimeout: time.Second, PoolTimeout: time.Second, MaxKeepaliveConns: 1,
		MaxConns: 1, KeepaliveExpiry: time.Second, VectorDimension: 3,
	})
	return c, srv.Close
}

func newTestStore(t *testing.T, handler http.HandlerFunc) (*vectorstore.Client, func()) {
	srv := httptest.NewServer(handler)
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	c := vectorstore.New(config.VectorStoreConfig{Host: host, Port: port, Timeout: time.Second})
	return c, srv.Close
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		DefaultLimit: 10, PrefetchLimit: 50, FastModeHNSWEf: 64, NormalHNSWEf: 128,
		HighConfidence: 0.90, MediumConfidence: 0.50, TruncateAt: 500,
		DecayEnabled: true, DecaySemanticWeight: 0.7,
	}
}

func TestSearch_ResolvesGroupIDFromCWDWhenNotSupplied(t *testing.T) {
	embedder, closeEmbed := newTestEmbedder(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeEmbed()

	var capturedFilter map[string]any
	store, closeStore := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		capturedFilter, _ = body["filter"].(map[string]any)
		json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{
			{"id": "a", "score": 0.95, "payload": map[string]any{"content": "hit"}},
		}})
	})
	defer closeStore()

	dir := t.TempDir()
	c := New(embedder, store, testSearchConfig(), config.ProjectIDConfig{RootMarkers: []string{".git"}, Fallback: "unknown"})

	hits, err := c.Search(context.Background(), Params{
		Query: "how do I retry", Collection: config.CollectionCodePatterns, CWD: dir,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.NotNil(t, capturedFilter)
}

func TestSearch_NoProjectFilterOmitsGroupIDCondition(t *testing.T) {
	embedder, closeEmbed := newTestEmbedder(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeEmbed()

	var capturedBody map[string]any
	store, closeStore := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&capturedBody)
		json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{}})
	})
	defer closeStore()

	c := New(embedder, store, testSearchConfig(), config.ProjectIDConfig{Fallback: "unknown"})

	_, err := c.Search(context.Background(), Params{
		Query: "best practice", Collection: config.CollectionConventions, NoProjectFilter: true,
	})
	require.NoError(t, err)
	assert.Nil(t, capturedBody["filter"])
}

func TestSearchBothCollections_QueriesProjectAndShared(t *testing.T) {
	embedder, closeEmbed := newTestEmbedder(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeEmbed()

	store, closeStore := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{
			{"id": "x", "score": 0.8, "payload": map[string]any{}},
		}})
	})
	defer closeStore()

	c := New(embedder, store, testSearchConfig(), config.ProjectIDConfig{Fallback: "unknown"})

	projectHits, sharedHits, err := c.SearchBothCollections(context.Background(), "query", "proj", "",
		config.CollectionConventions, config.CollectionCodePatterns, 10, false)
	require.NoError(t, err)
	assert.Len(t, projectHits, 1)
	assert.Len(t, sharedHits, 1)
}

func TestCascadingSearch_FillsFromSecondaryWhenPrimaryShort(t *testing.T) {
	embedder, closeEmbed := newTestEmbedder(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeEmbed()

	store, closeStore := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch path {
		case "/collections/code-patterns/points/query":
			json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{
				{"id": "p1", "score": 0.7, "payload": map[string]any{}},
			}})
		case "/collections/discussions/points/query":
			json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{
				{"id": "s1", "score": 0.6, "payload": map[string]any{}},
				{"id": "s2", "score": 0.5, "payload": map[string]any{}},
			}})
		}
	})
	defer closeStore()

	c := New(embedder, store, testSearchConfig(), config.ProjectIDConfig{Fallback: "unknown"})

	hits, err := c.CascadingSearch(context.Background(), "query", "proj", "",
		config.CollectionCodePatterns, []config.Collection{config.CollectionDiscussions}, 3, nil, false)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "p1", hits[0].ID)
	assert.Equal(t, "s1", hits[1].ID)
	assert.Equal(t, "s2", hits[2].ID)
}

func TestRetrieveBestPractices_DefaultsLimitToThree(t *testing.T) {
	embedder, closeEmbed := newTestEmbedder(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeEmbed()

	var capturedLimit float64
	store, closeStore := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		capturedLimit, _ = body["limit"].(float64)
		json.NewEncoder(w).Encode(map[string]any{"points": []map[string]any{}})
	})
	defer closeStore()

	c := New(embedder, store, testSearchConfig(), config.ProjectIDConfig{Fallback: "unknown"})

	_, err := c.RetrieveBestPractices(context.Background(), "how should I name this", 0)
	require.NoError(t, err)
	assert.Equal(t, float64(3), capturedLimit)
}
