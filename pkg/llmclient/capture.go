package llmclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// StoreFunc persists one captured conversation turn; implemented by the
// storage pipeline in production, stubbed in tests.
type StoreFunc func(ctx context.Context, content string, memType config.MemoryType, sourceHook config.SourceHook, sessionID string, turnNumber int) error

// ConversationCapture implements fire-and-forget storage of user messages
// and agent responses: each capture schedules a background goroutine,
// tracked so Close/WaitForStorage can bound how long shutdown waits for
// stragglers. Storage failures are logged and counted, never propagated to
// the conversation — grounded on async_capture.py.
type ConversationCapture struct {
	store StoreFunc

	mu        sync.Mutex
	wg        sync.WaitGroup
	succeeded int
	failed    int
}

// NewConversationCapture returns a ConversationCapture backed by store.
func NewConversationCapture(store StoreFunc) *ConversationCapture {
	return &ConversationCapture{store: store}
}

// CaptureUserMessage schedules a background store of a user turn.
func (c *ConversationCapture) CaptureUserMessage(ctx context.Context, content, sessionID string, turnNumber int) {
	c.capture(ctx, content, config.MemoryTypeUserMessage, sessionID, turnNumber)
}

// CaptureAgentResponse schedules a background store of the paired agent
// response, with the same turn_number as its triggering user message.
func (c *ConversationCapture) CaptureAgentResponse(ctx context.Context, content, sessionID string, turnNumber int) {
	c.capture(ctx, content, config.MemoryTypeAgentResponse, sessionID, turnNumber)
}

func (c *ConversationCapture) capture(ctx context.Context, content string, memType config.MemoryType, sessionID string, turnNumber int) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Detach from the caller's cancellation: a capture started during a
		// request must not be cut off merely because that request returned.
		captureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.store(captureCtx, content, memType, config.SourceHookSDKWrapper, sessionID, turnNumber); err != nil {
			slog.Warn("llmclient: background conversation capture failed",
				"session_id", sessionID, "turn", turnNumber, "error", err)
			c.mu.Lock()
			c.failed++
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.succeeded++
		c.mu.Unlock()
	}()
	_ = ctx
}

// Stats reports how many background captures have completed so far.
type Stats struct {
	Succeeded int
	Failed    int
}

func (c *ConversationCapture) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Succeeded: c.succeeded, Failed: c.failed}
}

// WaitForStorage blocks until all outstanding captures finish or timeout
// elapses, whichever comes first. Stragglers past the deadline are left to
// finish on their own (they are detached from ctx already) but are no
// longer waited on.
func (c *ConversationCapture) WaitForStorage(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("llmclient: wait_for_storage timed out with captures still in flight")
	}
}

// Close waits for outstanding storage (bounded) as the final shutdown step.
func (c *ConversationCapture) Close() {
	c.WaitForStorage(30 * time.Second)
}
