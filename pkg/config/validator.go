package config

import "log/slog"

// warnAndFallback range-checks a fixed set of numeric fields in the
// rate_limit, retry_queue, classifier, search, freshness and activity_log
// sections; other fields and enum-valued fields are not checked. A field
// that fails validation is reset to its builtin
// default and logged as a warning — the loader must never crash its host on
// a bad config value.
func warnAndFallback(cfg *Config) {
	defaults := defaultConfig(cfg.configDir)

	if cfg.RateLimit.RequestsPerMinute <= 0 {
		warn("rate_limit", "requests_per_minute", cfg.RateLimit.RequestsPerMinute)
		cfg.RateLimit.RequestsPerMinute = defaults.RateLimit.RequestsPerMinute
	}
	if cfg.RateLimit.TokensPerMinute <= 0 {
		warn("rate_limit", "tokens_per_minute", cfg.RateLimit.TokensPerMinute)
		cfg.RateLimit.TokensPerMinute = defaults.RateLimit.TokensPerMinute
	}
	if cfg.RateLimit.MaxQueueDepth < 1 {
		warn("rate_limit", "max_queue_depth", cfg.RateLimit.MaxQueueDepth)
		cfg.RateLimit.MaxQueueDepth = defaults.RateLimit.MaxQueueDepth
	}

	if cfg.RetryQueue.MaxRetries < 0 {
		warn("retry_queue", "max_retries", cfg.RetryQueue.MaxRetries)
		cfg.RetryQueue.MaxRetries = defaults.RetryQueue.MaxRetries
	}
	if len(cfg.RetryQueue.BackoffSteps) == 0 {
		warn("retry_queue", "backoff_steps", cfg.RetryQueue.BackoffSteps)
		cfg.RetryQueue.BackoffSteps = defaults.RetryQueue.BackoffSteps
	}

	if cfg.Classifier.ConfidenceThreshold < 0 || cfg.Classifier.ConfidenceThreshold > 1 {
		warn("classifier", "confidence_threshold", cfg.Classifier.ConfidenceThreshold)
		cfg.Classifier.ConfidenceThreshold = defaults.Classifier.ConfidenceThreshold
	}

	if cfg.Search.HighConfidence < cfg.Search.MediumConfidence {
		warn("search", "high_confidence", cfg.Search.HighConfidence)
		cfg.Search.HighConfidence = defaults.Search.HighConfidence
		cfg.Search.MediumConfidence = defaults.Search.MediumConfidence
	}

	if cfg.Freshness.AgingCommits <= 0 || cfg.Freshness.StaleCommits <= cfg.Freshness.AgingCommits ||
		cfg.Freshness.ExpiredCommits <= cfg.Freshness.StaleCommits {
		warn("freshness", "commit thresholds", []int{cfg.Freshness.AgingCommits, cfg.Freshness.StaleCommits, cfg.Freshness.ExpiredCommits})
		cfg.Freshness.AgingCommits = defaults.Freshness.AgingCommits
		cfg.Freshness.StaleCommits = defaults.Freshness.StaleCommits
		cfg.Freshness.ExpiredCommits = defaults.Freshness.ExpiredCommits
	}

	if cfg.ActivityLog.MaxEntries <= 0 {
		warn("activity_log", "max_entries", cfg.ActivityLog.MaxEntries)
		cfg.ActivityLog.MaxEntries = defaults.ActivityLog.MaxEntries
	}
}

func warn(component, field string, value any) {
	slog.Warn("invalid config value, falling back to default",
		"component", component, "field", field, "value", value)
}
