package opsserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/ratelimit"
	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
)

func testQueue(t *testing.T) *retryqueue.Queue {
	t.Helper()
	q, err := retryqueue.New(config.RetryQueueConfig{
		Dir: t.TempDir(), FileName: "queue.jsonl", LockTimeout: time.Second, MaxRetries: 3,
		BackoffSteps: []time.Duration{time.Minute},
	})
	require.NoError(t, err)
	return q
}

func TestHealthzHandler_ReturnsOK(t *testing.T) {
	srv := New(nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestStatuszHandler_ToleratesNilCollaborators(t *testing.T) {
	srv := New(nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/statusz", nil)
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestStatuszHandler_ReportsQueueStats(t *testing.T) {
	q := testQueue(t)
	require.NoError(t, q.Enqueue([]byte(`{"content":"x"}`), "QDRANT_UNAVAILABLE"))

	limiter := ratelimit.New(config.RateLimitConfig{
		RequestsPerMinute: 10, TokensPerMinute: 1000, MaxQueueDepth: 5, QueueTimeout: time.Second,
	}, nil)

	srv := New(limiter, nil, q, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/statusz", nil)
	srv.engine.ServeHTTP(rec, req)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.RetryQueue.Total)
}
