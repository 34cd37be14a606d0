package retryqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func testConfig(t *testing.T) config.RetryQueueConfig {
	return config.RetryQueueConfig{
		Dir:          t.TempDir(),
		FileName:     "queue.jsonl",
		LockTimeout:  time.Second,
		MaxRetries:   3,
		BackoffSteps: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond},
	}
}

func TestEnqueueAndGetPending(t *testing.T) {
	q, err := New(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, q.Enqueue([]byte(`{"content":"x"}`), "embedding timeout"))

	time.Sleep(15 * time.Millisecond)
	pending, err := q.GetPending(0, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "embedding timeout", pending[0].FailureReason)
}

func TestDequeue_RemovesEntry(t *testing.T) {
	q, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, q.Enqueue([]byte(`{"content":"x"}`), "err"))

	time.Sleep(15 * time.Millisecond)
	pending, err := q.GetPending(0, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, q.Dequeue(pending[0].ID))
	stats, err := q.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestMarkFailed_ExhaustedEntryStaysOnDiskButDropsFromDefaultPending(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRetries = 1
	cfg.BackoffSteps = []time.Duration{0}
	q, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue([]byte(`{"content":"x"}`), "err"))

	pending, err := q.GetPending(0, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].ID

	require.NoError(t, q.MarkFailed(id, "still failing"))
	require.NoError(t, q.MarkFailed(id, "still failing again"))

	stats, err := q.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Exhausted)
	assert.Equal(t, 0, stats.ReadyForRetry)

	normalPending, err := q.GetPending(0, false)
	require.NoError(t, err)
	assert.Empty(t, normalPending)

	forced, err := q.GetPending(0, true)
	require.NoError(t, err)
	require.Len(t, forced, 1)
	assert.Equal(t, id, forced[0].ID)
}

func TestGetPending_LimitCapsResults(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackoffSteps = []time.Duration{0}
	q, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue([]byte(`{"content":"a"}`), "err"))
	require.NoError(t, q.Enqueue([]byte(`{"content":"b"}`), "err"))
	require.NoError(t, q.Enqueue([]byte(`{"content":"c"}`), "err"))

	pending, err := q.GetPending(2, false)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestGetStats_CountsByFailureReason(t *testing.T) {
	q, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, q.Enqueue([]byte(`{"content":"a"}`), "QDRANT_UNAVAILABLE"))
	require.NoError(t, q.Enqueue([]byte(`{"content":"b"}`), "QDRANT_UNAVAILABLE"))
	require.NoError(t, q.Enqueue([]byte(`{"content":"c"}`), "EMBEDDING_TIMEOUT"))

	stats, err := q.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ByFailureReason["QDRANT_UNAVAILABLE"])
	assert.Equal(t, 1, stats.ByFailureReason["EMBEDDING_TIMEOUT"])
}
