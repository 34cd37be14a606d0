package llmclient

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryableStatus reports whether status should trigger a retry: 429 or
// 529, never other 4xx (including 400/401/403) or non-matching 5xx.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == 529
}

// statusError is the minimal shape send needs from an upstream failure to
// decide whether to retry: an HTTP status and an optional retry-after
// header value.
type statusError struct {
	status     int
	retryAfter string
}

func (e *statusError) Error() string { return "llmclient: upstream status " + strconv.Itoa(e.status) }

// withRetry runs fn up to 4 total attempts (3 retries), using base delays
// 1s/2s/4s capped at 8s with up to ±0.4s jitter, honoring a retry-after
// header override when present. Grounded on llm_client.py's retry policy.
func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	base := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for attempt := 0; attempt <= len(base); attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var statusErr *statusError
		if !errors.As(lastErr, &statusErr) || !retryableStatus(statusErr.status) {
			return lastErr
		}
		if attempt == len(base) {
			break
		}

		delay := base[attempt]
		if statusErr.retryAfter != "" {
			if secs, err := strconv.Atoi(statusErr.retryAfter); err == nil {
				delay = time.Duration(secs) * time.Second
			}
		} else {
			jitter := time.Duration((rand.Float64()*2 - 1) * float64(400*time.Millisecond))
			delay += jitter
			if delay > 8*time.Second {
				delay = 8 * time.Second
			}
			if delay < 0 {
				delay = 0
			}
		}

		slog.Info("llmclient: retrying after upstream failure", "attempt", attempt+1, "delay", delay, "status", statusErr.status)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// exponentialBackOffFloor exists to document (and exercise) the
// cenkalti/backoff/v4 dependency's constructor shape for components that
// compose a vanilla exponential policy without the retry-after override —
// SendMessageBuffered's whole-call retry uses this rather than withRetry's
// header-aware variant.
func exponentialBackOffFloor() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 2
	b.MaxInterval = 8 * time.Second
	return backoff.WithMaxRetries(b, 3)
}
