package config

import "time"

// builtinLLMProviders mirrors the original system's four classifier/LLM
// providers. User YAML can override base_url, api_key_env, and model per
// provider; it cannot introduce a fifth type, since the provider
// implementations are closed (see pkg/classifier/providers).
func builtinLLMProviders() map[string]LLMProviderConfig {
	return map[string]LLMProviderConfig{
		"claude": {
			Type:      "claude",
			BaseURL:   "https://api.anthropic.com",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Model:     "claude-3-5-haiku-20241022",
			Timeout:   10 * time.Second,
		},
		"openrouter": {
			Type:      "openrouter",
			BaseURL:   "https://openrouter.ai/api/v1",
			APIKeyEnv: "OPENROUTER_API_KEY",
			Model:     "anthropic/claude-3-5-haiku",
			Timeout:   10 * time.Second,
		},
		"openai": {
			Type:      "openai",
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Model:     "gpt-4o-mini",
			Timeout:   10 * time.Second,
		},
		"ollama": {
			Type:    "ollama",
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
			Timeout: 15 * time.Second,
		},
	}
}

// builtinProviderOrder is the fallback chain order when YAML doesn't specify one.
var builtinProviderOrder = []string{"claude", "openrouter", "openai", "ollama"}

// defaultConfig returns every setting the system needs with no YAML present
// at all — loading an empty configDir must still produce a usable Config.
func defaultConfig(configDir string) *Config {
	providers := builtinLLMProviders()
	return &Config{
		configDir: configDir,
		ProjectID: ProjectIDConfig{
			RootMarkers: []string{".git", "go.mod", "package.json", "pyproject.toml"},
			Fallback:    "unknown",
		},
		Embedding: EmbeddingConfig{
			BaseURL:           "http://localhost:8001",
			ConnectTimeout:    3 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      5 * time.Second,
			PoolTimeout:       3 * time.Second,
			MaxKeepaliveConns: 20,
			MaxConns:          100,
			KeepaliveExpiry:   10 * time.Second,
			VectorDimension:   384,
		},
		VectorStore: VectorStoreConfig{
			Host:    "localhost",
			Port:    6333,
			UseTLS:  false,
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:    50,
			TokensPerMinute:      40000,
			MaxQueueDepth:        100,
			QueueTimeout:         30 * time.Second,
			PollInterval:         100 * time.Millisecond,
			CircuitFailThreshold: 5,
			CircuitCooldown:      60 * time.Second,
		},
		RetryQueue: RetryQueueConfig{
			Dir:         "~/.ai-memory/retry_queue",
			FileName:    "queue.jsonl",
			LockTimeout: 5 * time.Second,
			MaxRetries:  3,
			BackoffSteps: []time.Duration{
				1 * time.Minute, 5 * time.Minute, 15 * time.Minute,
			},
		},
		Classifier: ClassifierConfig{
			Enabled:               true,
			ConfidenceThreshold:   0.7,
			RuleConfidence:        0.8,
			ProviderOrder:         builtinProviderOrder,
			CircuitFailThreshold:  5,
			CircuitCooldown:       60 * time.Second,
			CircuitHalfOpenProbes: 3,
			ProviderRPM:           60,
			ProviderBurst:         10,
		},
		Search: SearchConfig{
			DefaultLimit:        10,
			PrefetchLimit:       50,
			FastModeHNSWEf:      64,
			NormalHNSWEf:        128,
			HighConfidence:      0.90,
			MediumConfidence:    0.50,
			TruncateAt:          500,
			DecayEnabled:        true,
			DecaySemanticWeight: 0.7,
		},
		Freshness: FreshnessConfig{
			AgingCommits:   10,
			StaleCommits:   50,
			ExpiredCommits: 200,
			AuditLogPath:   "~/.ai-memory/freshness_audit.jsonl",
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			JobName:     "ai_memory_hooks",
			PushTimeout: 500 * time.Millisecond,
		},
		Trace: TraceConfig{
			Enabled:     false,
			BufferDir:   "~/.ai-memory/trace_buffer",
			MaxBufferMB: 100,
		},
		ActivityLog: ActivityLogConfig{
			Path:           "~/.ai-memory/activity.log",
			MaxEntries:     500,
			FullContentTag: "FULL_CONTENT:",
		},
		Ops: OpsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8099",
		},
		LLMProviders: NewLLMProviderRegistry(providers, builtinProviderOrder),
	}
}
