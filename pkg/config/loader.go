package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// memoryYAMLConfig represents the complete memory.yaml file structure.
// Every field is optional — omitted sections fall back to builtin defaults.
type memoryYAMLConfig struct {
	ProjectID   *ProjectIDConfig             `yaml:"project_id"`
	Embedding   *EmbeddingConfig             `yaml:"embedding"`
	VectorStore *VectorStoreConfig           `yaml:"vector_store"`
	RateLimit   *RateLimitConfig             `yaml:"rate_limit"`
	RetryQueue  *RetryQueueConfig            `yaml:"retry_queue"`
	Classifier  *ClassifierConfig            `yaml:"classifier"`
	Search      *SearchConfig                `yaml:"search"`
	Freshness   *FreshnessConfig             `yaml:"freshness"`
	Metrics     *MetricsConfig               `yaml:"metrics"`
	Trace       *TraceConfig                 `yaml:"trace"`
	ActivityLog *ActivityLogConfig           `yaml:"activity_log"`
	Ops         *OpsConfig                   `yaml:"ops"`
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
	ProviderOrder []string                    `yaml:"provider_order"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the single entry point; it never returns an error for a bad field
// value — only a LoadError when memory.yaml exists but cannot be read or is
// not valid YAML.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	warnAndFallback(cfg)

	stats := cfg.Stats()
	log.Info("configuration initialized", "llm_providers", stats.LLMProviders)
	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	cfg := defaultConfig(configDir)

	path := filepath.Join(configDir, "memory.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No user config at all is a perfectly valid deployment.
			slog.Info("no memory.yaml found, using builtin defaults", "path", path)
			return cfg, nil
		}
		return nil, NewLoadError("memory.yaml", err)
	}

	data = ExpandEnv(data)

	var user memoryYAMLConfig
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, NewLoadError("memory.yaml", fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	mergeUserConfig(cfg, &user)
	return cfg, nil
}
