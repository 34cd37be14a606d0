// Package classifier implements the rule-then-LLM memory classification
// chain: kill-switch, significance check, protected-type guard, ordered
// regex rules, then a fallback chain of LLM providers each behind its own
// circuit breaker and non-blocking rate limiter, grounded on classifier.py
// and circuit_breaker.py.
package classifier

import (
	"context"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// Result is one provider's classification verdict.
type Result struct {
	Type         config.MemoryType
	Confidence   float64
	Reasoning    string
	Tags         []string
	InputTokens  int
	OutputTokens int
	ModelName    string
}

// Provider is the common interface every LLM classification backend
// implements — grounded on the original's four separate provider modules,
// none of which shared an SDK, unified here behind one Go interface.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Classify(ctx context.Context, content string, collection config.Collection, currentType config.MemoryType) (Result, error)
}
