package config

import "time"

// Config is the single immutable, validated configuration object produced by
// Initialize. Every field is populated — from YAML, from an environment
// variable, or from a built-in default — by the time callers see it.
type Config struct {
	configDir string

	ProjectID ProjectIDConfig

	Embedding   EmbeddingConfig
	VectorStore VectorStoreConfig
	RateLimit   RateLimitConfig
	RetryQueue  RetryQueueConfig
	Classifier  ClassifierConfig
	Search      SearchConfig
	Freshness   FreshnessConfig
	Metrics     MetricsConfig
	Trace       TraceConfig
	ActivityLog ActivityLogConfig
	Ops         OpsConfig

	LLMProviders *LLMProviderRegistry
}

// ProjectIDConfig controls how a working directory resolves to a group_id.
type ProjectIDConfig struct {
	RootMarkers []string // e.g. ".git", "go.mod", "package.json"
	Fallback    string   // "unknown"
}

// EmbeddingConfig configures the embedding service HTTP client.
type EmbeddingConfig struct {
	BaseURL           string
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	PoolTimeout       time.Duration
	MaxKeepaliveConns int
	MaxConns          int
	KeepaliveExpiry   time.Duration
	VectorDimension   int
}

// VectorStoreConfig configures the vector-store client connection.
type VectorStoreConfig struct {
	Host    string
	Port    int
	APIKey  string
	UseTLS  bool
	Timeout time.Duration
}

// RateLimitConfig configures the dual token-bucket rate limiter guarding the
// upstream LLM client.
type RateLimitConfig struct {
	RequestsPerMinute    float64       `yaml:"requests_per_minute"`
	TokensPerMinute      float64       `yaml:"tokens_per_minute"`
	MaxQueueDepth        int           `yaml:"max_queue_depth"`
	QueueTimeout         time.Duration `yaml:"queue_timeout"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	CircuitFailThreshold int           `yaml:"circuit_fail_threshold"`
	CircuitCooldown      time.Duration `yaml:"circuit_cooldown"`
	RedisAddr            string        `yaml:"redis_addr"` // address for a Redis queue_depth counter; no code in this module reads it
}

// RetryQueueConfig configures the durable file-locked retry queue.
type RetryQueueConfig struct {
	Dir          string
	FileName     string
	LockTimeout  time.Duration
	MaxRetries   int
	BackoffSteps []time.Duration
}

// ClassifierConfig configures the rule-based/LLM classification chain.
type ClassifierConfig struct {
	Enabled               bool
	ConfidenceThreshold   float64
	RuleConfidence        float64
	ProviderOrder         []string // tried in order, first available wins
	CircuitFailThreshold  int
	CircuitCooldown       time.Duration
	CircuitHalfOpenProbes uint32
	ProviderRPM           float64 // per-provider token-bucket rate limit, req/min
	ProviderBurst         float64
}

// SearchConfig configures hybrid decay-scored retrieval.
type SearchConfig struct {
	DefaultLimit        int
	PrefetchLimit       int
	FastModeHNSWEf      int
	NormalHNSWEf        int
	HighConfidence      float64 // score >= this: full content
	MediumConfidence    float64 // score >= this: truncated content
	TruncateAt          int
	DecayEnabled        bool
	DecaySemanticWeight float64 // w_sem; default 0.7
}

// FreshnessConfig configures the on-demand freshness scanner.
type FreshnessConfig struct {
	AgingCommits   int
	StaleCommits   int
	ExpiredCommits int
	AuditLogPath   string
}

// MetricsConfig configures the Prometheus pushgateway client.
type MetricsConfig struct {
	Enabled     bool
	PushURL     string
	JobName     string
	PushTimeout time.Duration
}

// TraceConfig configures the JSON trace-event buffer.
type TraceConfig struct {
	Enabled     bool
	BufferDir   string
	MaxBufferMB int
}

// ActivityLogConfig configures the human-readable append-only activity log.
type ActivityLogConfig struct {
	Path           string
	MaxEntries     int
	FullContentTag string
}

// OpsConfig configures the minimal in-process health/status HTTP surface.
type OpsConfig struct {
	Enabled bool
	Addr    string
}

// LLMProviderConfig describes one upstream LLM or classifier provider.
type LLMProviderConfig struct {
	Type      string        `yaml:"type"` // "claude", "openai", "openrouter", "ollama"
	BaseURL   string        `yaml:"base_url,omitempty"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"`
	Model     string        `yaml:"model,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// LLMProviderRegistry is a read-only lookup table of configured providers,
// built once at startup.
type LLMProviderRegistry struct {
	providers map[string]LLMProviderConfig
	order     []string
}

// NewLLMProviderRegistry builds a registry, preserving the caller-supplied
// order for deterministic provider-chain iteration.
func NewLLMProviderRegistry(providers map[string]LLMProviderConfig, order []string) *LLMProviderRegistry {
	return &LLMProviderRegistry{providers: providers, order: order}
}

// Get returns the named provider's configuration.
func (r *LLMProviderRegistry) Get(name string) (LLMProviderConfig, error) {
	cfg, ok := r.providers[name]
	if !ok {
		return LLMProviderConfig{}, ErrLLMProviderNotFound
	}
	return cfg, nil
}

// Order returns provider names in configured fallback order.
func (r *LLMProviderRegistry) Order() []string {
	return append([]string(nil), r.order...)
}

// ConfigStats summarizes the loaded configuration for startup logging.
type ConfigStats struct {
	LLMProviders int
}

// Stats returns a summary of the loaded configuration.
func (c *Config) Stats() ConfigStats {
	n := 0
	if c.LLMProviders != nil {
		n = len(c.LLMProviders.providers)
	}
	return ConfigStats{LLMProviders: n}
}

// ConfigDir returns the directory this configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }
