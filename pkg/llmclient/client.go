// Package llmclient implements the async wrapper around the upstream LLM
// HTTP SDK: send_message's rate-limit/capture/retry sequence and
// fire-and-forget conversation capture, grounded on llm_client.py and
// async_capture.py.
package llmclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/aimemory/pkg/ratelimit"
)

// tokenMultiplier approximates input tokens from a prompt's word count, per
// the original's len(words) * 1.3 heuristic.
const tokenMultiplier = 1.3

// Usage mirrors the upstream response's token accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is send_message's return shape.
type Response struct {
	Content    string
	SessionID  string
	TurnNumber int
	Usage      Usage
}

// Client is the thin async wrapper scheduled by the rate-limit queue.
type Client struct {
	sdk     anthropic.Client
	limiter *ratelimit.Limiter
	capture *ConversationCapture

	mu    sync.Mutex
	turns map[string]int
}

// New builds a Client. apiKey/baseURL configure the upstream SDK; limiter
// guards request/token budget; capture persists conversation turns
// fire-and-forget.
func New(apiKey, baseURL string, limiter *ratelimit.Limiter, capture *ConversationCapture) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		sdk:     anthropic.NewClient(opts...),
		limiter: limiter,
		capture: capture,
		turns:   make(map[string]int),
	}
}

func estimateTokens(prompt string) float64 {
	words := len(strings.Fields(prompt))
	return float64(words) * tokenMultiplier
}

func (c *Client) nextTurn(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns[sessionID]++
	return c.turns[sessionID]
}

// SendMessage runs the full send_message sequence: estimate tokens,
// acquire the rate limiter, fire the user-message capture, send under
// retry, record the outcome on the limiter's circuit breaker, extract text,
// fire the agent-response capture with the same turn_number, and return the
// result. The limiter's bucket levels are not updated from the response's
// rate-limit headers.
func (c *Client) SendMessage(ctx context.Context, sessionID, prompt, model string, maxTokens int) (Response, error) {
	estimated := estimateTokens(prompt)
	if err := c.limiter.Acquire(ctx, estimated); err != nil {
		return Response{}, fmt.Errorf("llmclient: rate limiter: %w", err)
	}

	turn := c.nextTurn(sessionID)
	c.capture.CaptureUserMessage(ctx, prompt, sessionID, turn)

	var msg *anthropic.Message
	err := withRetry(ctx, func(ctx context.Context) error {
		var sendErr error
		msg, sendErr = c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if sendErr != nil {
			return classifyUpstreamError(sendErr)
		}
		return nil
	})
	if err != nil {
		c.limiter.RecordFailure()
		return Response{}, fmt.Errorf("llmclient: send message: %w", err)
	}
	c.limiter.RecordSuccess()

	var text string
	for _, block := range msg.Content {
		if tb := block.AsText(); tb.Text != "" {
			text += tb.Text
		}
	}

	c.capture.CaptureAgentResponse(ctx, text, sessionID, turn)

	return Response{
		Content:    text,
		SessionID:  sessionID,
		TurnNumber: turn,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// SendMessageBuffered retries the whole SendMessage call, on any error,
// under github.com/cenkalti/backoff/v4 (exponentialBackOffFloor, bounded by
// ctx) and returns the complete text of the first successful attempt. It
// opens no stream: each attempt is a complete non-streaming SendMessage,
// which again acquires the limiter, advances the session's turn number and
// fires both captures.
func (c *Client) SendMessageBuffered(ctx context.Context, sessionID, prompt, model string, maxTokens int) (Response, error) {
	var resp Response
	operation := func() error {
		var err error
		resp, err = c.SendMessage(ctx, sessionID, prompt, model, maxTokens)
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(exponentialBackOffFloor(), ctx)); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// classifyUpstreamError wraps an SDK error into a *statusError carrying the
// HTTP status and any retry-after header, so withRetry can decide whether
// the failure is retryable without depending on SDK-internal error types
// beyond the one exported *anthropic.Error shape.
func classifyUpstreamError(err error) error {
	var apiErr *anthropic.Error
	if !isAnthropicError(err, &apiErr) {
		return err
	}
	retryAfter := ""
	if v := apiErr.Response.Header.Get("retry-after"); v != "" {
		if _, convErr := strconv.Atoi(v); convErr == nil {
			retryAfter = v
		}
	}
	return &statusError{status: apiErr.StatusCode, retryAfter: retryAfter}
}

func isAnthropicError(err error, target **anthropic.Error) bool {
	apiErr, ok := err.(*anthropic.Error)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
