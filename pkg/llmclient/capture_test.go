package llmclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func TestConversationCapture_SucceedsFireAndForget(t *testing.T) {
	var calls int32
	store := func(ctx context.Context, content string, memType config.MemoryType, hook config.SourceHook, sessionID string, turn int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	c := NewConversationCapture(store)

	c.CaptureUserMessage(context.Background(), "hi", "s1", 1)
	c.CaptureAgentResponse(context.Background(), "hello", "s1", 1)
	c.WaitForStorage(time.Second)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	stats := c.Stats()
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
}

func TestConversationCapture_FailureIsCountedNotPropagated(t *testing.T) {
	store := func(ctx context.Context, content string, memType config.MemoryType, hook config.SourceHook, sessionID string, turn int) error {
		return errors.New("boom")
	}
	c := NewConversationCapture(store)

	c.CaptureUserMessage(context.Background(), "hi", "s1", 1)
	c.WaitForStorage(time.Second)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
}
