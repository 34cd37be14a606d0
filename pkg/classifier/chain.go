package classifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/memory"
	"github.com/codeready-toolchain/aimemory/pkg/ratelimit"
)

// Outcome is the result of running the classification chain.
type Outcome struct {
	Type            config.MemoryType
	WasReclassified bool
	Confidence      float64
	Reasoning       string
	Tags            []string
	ProviderUsed    string
}

// Classifier runs the kill-switch → significance → protected-type →
// rule-based → LLM-provider-chain classification pipeline.
type Classifier struct {
	cfg       config.ClassifierConfig
	providers []Provider

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*ratelimit.SimpleBucket
}

// New builds a Classifier trying providers in the order given by
// cfg.ProviderOrder, falling through to the next on unavailability,
// circuit-open, rate-limit denial, or an invalid/low-confidence result.
func New(cfg config.ClassifierConfig, providers []Provider) *Classifier {
	return &Classifier{
		cfg:       cfg,
		providers: providers,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		limiters:  make(map[string]*ratelimit.SimpleBucket),
	}
}

// Classify runs the full pipeline and returns the resolved type plus
// whether a reclassification actually took place.
func (c *Classifier) Classify(ctx context.Context, content string, collection config.Collection, currentType config.MemoryType) Outcome {
	unchanged := Outcome{Type: currentType, WasReclassified: false}

	if !c.cfg.Enabled {
		return unchanged
	}

	level := AssessLevel(content)
	if level == LevelSkip || level == LevelLow {
		return unchanged
	}

	if currentType.IsProtected() {
		return unchanged
	}

	if result, ok := classifyByRule(content, c.cfg.RuleConfidence); ok {
		if memory.IsTypeAllowedForCollection(collection, result.Type) {
			return Outcome{Type: result.Type, WasReclassified: result.Type != currentType, Confidence: result.Confidence, Reasoning: result.Reasoning}
		}
		slog.Warn("classifier: rule matched a type invalid for collection", "type", result.Type, "collection", collection)
	}

	for _, p := range c.providers {
		breaker := c.breakerFor(p.Name())
		if breaker.State() == gobreaker.StateOpen {
			continue
		}
		limiter := c.limiterFor(p.Name())
		if !limiter.TryAcquire() {
			continue
		}
		if !p.IsAvailable(ctx) {
			c.recordFailure(breaker)
			continue
		}

		result, err := p.Classify(ctx, content, collection, currentType)
		if err != nil {
			c.recordFailure(breaker)
			continue
		}

		if !result.Type.IsValid() {
			slog.Warn("classifier: provider returned unknown type", "provider", p.Name(), "type", result.Type)
			c.recordSuccess(breaker)
			continue
		}
		if !memory.IsTypeAllowedForCollection(collection, result.Type) {
			slog.Warn("classifier: provider type not valid for collection", "provider", p.Name(), "type", result.Type, "collection", collection)
			c.recordSuccess(breaker)
			continue
		}
		if result.Confidence < c.cfg.ConfidenceThreshold {
			c.recordSuccess(breaker)
			continue
		}

		c.recordSuccess(breaker)
		return Outcome{
			Type:            result.Type,
			WasReclassified: result.Type != currentType,
			Confidence:      result.Confidence,
			Reasoning:       result.Reasoning,
			Tags:            result.Tags,
			ProviderUsed:    p.Name(),
		}
	}

	return unchanged
}

func (c *Classifier) breakerFor(name string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: c.cfg.CircuitCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(c.cfg.CircuitFailThreshold)
		},
		MaxRequests: c.cfg.CircuitHalfOpenProbes,
	})
	c.breakers[name] = b
	return b
}

func (c *Classifier) limiterFor(name string) *ratelimit.SimpleBucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[name]; ok {
		return l
	}
	l := ratelimit.NewSimpleBucket(c.cfg.ProviderRPM, c.cfg.ProviderBurst)
	c.limiters[name] = l
	return l
}

func (c *Classifier) recordSuccess(b *gobreaker.CircuitBreaker) {
	_, _ = b.Execute(func() (any, error) { return nil, nil })
}

func (c *Classifier) recordFailure(b *gobreaker.CircuitBreaker) {
	_, _ = b.Execute(func() (any, error) { return nil, errProviderFailed })
}

// BreakerStates reports each provider's current circuit-breaker state, by
// provider name, for the ops statusz surface. A provider never yet tried
// has no entry.
func (c *Classifier) BreakerStates() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	states := make(map[string]string, len(c.breakers))
	for name, b := range c.breakers {
		states[name] = b.State().String()
	}
	return states
}
