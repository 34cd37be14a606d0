package config

import (
	"log/slog"

	"dario.cat/mergo"
)

// mergeUserConfig merges a parsed memory.yaml over the builtin defaults.
// Each section merges independently with mergo.WithOverride so a user who
// sets only one field in, say, rate_limit, keeps every other rate_limit
// default untouched.
func mergeUserConfig(cfg *Config, user *memoryYAMLConfig) {
	mergeSection(cfg, "project_id", &cfg.ProjectID, user.ProjectID)
	mergeSection(cfg, "embedding", &cfg.Embedding, user.Embedding)
	mergeSection(cfg, "vector_store", &cfg.VectorStore, user.VectorStore)
	mergeSection(cfg, "rate_limit", &cfg.RateLimit, user.RateLimit)
	mergeSection(cfg, "retry_queue", &cfg.RetryQueue, user.RetryQueue)
	mergeSection(cfg, "classifier", &cfg.Classifier, user.Classifier)
	mergeSection(cfg, "search", &cfg.Search, user.Search)
	mergeSection(cfg, "freshness", &cfg.Freshness, user.Freshness)
	mergeSection(cfg, "metrics", &cfg.Metrics, user.Metrics)
	mergeSection(cfg, "trace", &cfg.Trace, user.Trace)
	mergeSection(cfg, "activity_log", &cfg.ActivityLog, user.ActivityLog)
	mergeSection(cfg, "ops", &cfg.Ops, user.Ops)

	if len(user.LLMProviders) > 0 || len(user.ProviderOrder) > 0 {
		merged := builtinLLMProviders()
		for name, providerCfg := range user.LLMProviders {
			base := merged[name]
			if err := mergo.Merge(&base, providerCfg, mergo.WithOverride); err != nil {
				slog.Warn("failed to merge llm_providers entry, keeping builtin", "provider", name, "error", err)
				continue
			}
			merged[name] = base
		}
		order := user.ProviderOrder
		if len(order) == 0 {
			order = builtinProviderOrder
		}
		cfg.LLMProviders = NewLLMProviderRegistry(merged, order)
		cfg.Classifier.ProviderOrder = order
	}
}

// mergeSection merges src onto dst in place when src is non-nil, logging and
// preserving the existing defaults on failure.
func mergeSection[T any](_ *Config, name string, dst *T, src *T) {
	if src == nil {
		return
	}
	if err := mergo.Merge(dst, src, mergo.WithOverride); err != nil {
		slog.Warn("failed to merge config section, keeping defaults", "section", name, "error", err)
	}
}
