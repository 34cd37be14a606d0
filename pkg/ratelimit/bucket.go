// Package ratelimit implements the dual token-bucket rate limiter guarding
// the upstream LLM client, grounded on rate_limiter.py, plus the
// process-level circuit breaker (backed by github.com/sony/gobreaker) that
// trips after repeated upstream failures.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// Sentinel errors forming the rate-limit slice of the error taxonomy. Kept
// distinct rather than collapsed into one shared error, so callers can
// tell backpressure (queue depth, circuit open) from a plain timeout.
var (
	ErrQueueTimeout       = errors.New("rate limiter queue timeout")
	ErrQueueDepthExceeded = errors.New("rate limiter queue depth exceeded")
	ErrCircuitOpen        = errors.New("rate limiter circuit open")
)

// bucket is one continuously-refilling token bucket.
type bucket struct {
	limitPerMinute float64
	available      float64
	lastRefill     time.Time
}

func newBucket(limitPerMinute float64) *bucket {
	return &bucket{limitPerMinute: limitPerMinute, available: limitPerMinute, lastRefill: time.Now()}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.available += elapsed * (b.limitPerMinute / 60)
	if b.available > b.limitPerMinute {
		b.available = b.limitPerMinute
	}
	b.lastRefill = now
}

// timeToAvailable returns how long until n tokens are available, given the
// bucket's current level (assumes refill has already been applied).
func (b *bucket) timeToAvailable(n float64) time.Duration {
	deficit := n - b.available
	if deficit <= 0 {
		return 0
	}
	seconds := deficit / (b.limitPerMinute / 60)
	return time.Duration(seconds * float64(time.Second))
}

// Limiter is a dual request/token bucket with a queue-depth backpressure
// counter and a per-instance circuit breaker.
type Limiter struct {
	cfg config.RateLimitConfig

	mu       sync.Mutex
	requests *bucket
	tokens   *bucket

	breaker *gobreaker.CircuitBreaker

	depthCounter DepthCounter
}

// DepthCounter abstracts the queue_depth counter so it can be in-process
// (the default) or backed by a shared external counter across replicas.
type DepthCounter interface {
	Incr(ctx context.Context) (int64, error)
	Decr(ctx context.Context) (int64, error)
}

// localDepthCounter is the default, in-memory implementation.
type localDepthCounter struct {
	mu    sync.Mutex
	value int64
}

func (c *localDepthCounter) Incr(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value, nil
}

func (c *localDepthCounter) Decr(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value--
	return c.value, nil
}

// New builds a Limiter from cfg. depthCounter may be nil to use the
// in-memory default; pass a Redis-backed counter to coordinate queue_depth
// across multiple replicas.
func New(cfg config.RateLimitConfig, depthCounter DepthCounter) *Limiter {
	if depthCounter == nil {
		depthCounter = &localDepthCounter{}
	}
	settings := gobreaker.Settings{
		Name:    "rate-limit",
		Timeout: cfg.CircuitCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.CircuitFailThreshold)
		},
	}
	return &Limiter{
		cfg:          cfg,
		requests:     newBucket(cfg.RequestsPerMinute),
		tokens:       newBucket(cfg.TokensPerMinute),
		breaker:      gobreaker.NewCircuitBreaker(settings),
		depthCounter: depthCounter,
	}
}

// Acquire blocks until one request and estimatedTokens tokens are available,
// or ctx/the configured queue timeout expires, or the queue depth/circuit
// preconditions fail fast. It polls at min(100ms, time-to-next-token).
func (l *Limiter) Acquire(ctx context.Context, estimatedTokens float64) error {
	if l.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}

	depth, _ := l.depthCounter.Incr(ctx)
	defer l.depthCounter.Decr(ctx)
	if int(depth) > l.cfg.MaxQueueDepth {
		return ErrQueueDepthExceeded
	}

	deadline := time.Now().Add(l.cfg.QueueTimeout)
	for {
		l.mu.Lock()
		now := time.Now()
		l.requests.refill(now)
		l.tokens.refill(now)
		if l.requests.available >= 1 && l.tokens.available >= estimatedTokens {
			l.requests.available -= 1
			l.tokens.available -= estimatedTokens
			l.mu.Unlock()
			return nil
		}
		waitReq := l.requests.timeToAvailable(1)
		waitTok := l.tokens.timeToAvailable(estimatedTokens)
		wait := waitReq
		if waitTok > wait {
			wait = waitTok
		}
		l.mu.Unlock()

		if wait > 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		if time.Now().Add(wait).After(deadline) {
			return ErrQueueTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// UpdateFromHeaders adjusts bucket levels from upstream rate-limit
// response headers (e.g. anthropic-ratelimit-requests-remaining).
func (l *Limiter) UpdateFromHeaders(requestsRemaining, tokensRemaining *float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if requestsRemaining != nil {
		l.requests.available = *requestsRemaining
	}
	if tokensRemaining != nil {
		l.tokens.available = *tokensRemaining
	}
}

// RecordSuccess reports a successful upstream call to the circuit breaker.
func (l *Limiter) RecordSuccess() {
	_, _ = l.breaker.Execute(func() (any, error) { return nil, nil })
}

// RecordFailure reports a failed upstream call to the circuit breaker.
func (l *Limiter) RecordFailure() {
	_, _ = l.breaker.Execute(func() (any, error) { return nil, errors.New("upstream failure") })
}

// Levels is a point-in-time snapshot of bucket fill and breaker state, for
// the ops statusz surface.
type Levels struct {
	RequestsAvailable float64
	TokensAvailable   float64
	BreakerState      string
}

// Levels reports the limiter's current bucket levels and breaker state.
func (l *Limiter) Levels() Levels {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.requests.refill(now)
	l.tokens.refill(now)
	return Levels{
		RequestsAvailable: l.requests.available,
		TokensAvailable:   l.tokens.available,
		BreakerState:      l.breaker.State().String(),
	}
}

// SimpleBucket is a non-blocking, single-bucket token limiter — the
// strictly-non-queueing variant used for per-provider classifier rate
// limiting (§4.F), as opposed to Limiter's blocking dual-bucket Acquire.
type SimpleBucket struct {
	mu sync.Mutex
	b  *bucket
}

// NewSimpleBucket returns a SimpleBucket refilling at ratePerMinute tokens
// per minute, starting full up to burst.
func NewSimpleBucket(ratePerMinute, burst float64) *SimpleBucket {
	b := newBucket(ratePerMinute)
	b.available = burst
	return &SimpleBucket{b: b}
}

// TryAcquire attempts to deduct one token immediately, returning false
// without blocking or queueing if none is available.
func (s *SimpleBucket) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b.refill(time.Now())
	if s.b.available < 1 {
		return false
	}
	s.b.available -= 1
	return true
}
