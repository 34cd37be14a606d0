// Package hookwiring builds the small set of collaborators each hook
// binary needs (config, embedder, vector store, retry queue, storage
// pipeline, classifier, activity log) from one configDir, so
// cmd/hooks/session-start, cmd/hooks/post-tool-use, and cmd/hooks/stop
// share one construction path instead of three divergent ones.
//
// Each hook process is short-lived: it builds its Deps, does one unit of
// work, and exits. It deliberately does not start the retry drainer or the
// ops server — those belong to the long-lived cmd/memoryd process.
package hookwiring

import (
	"context"

	"github.com/codeready-toolchain/aimemory/pkg/activitylog"
	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/classifier/providers"
	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/embedding"
	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
	"github.com/codeready-toolchain/aimemory/pkg/storage"
	"github.com/codeready-toolchain/aimemory/pkg/telemetry"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// Deps is every collaborator a hook binary's single unit of work might need.
type Deps struct {
	Config     *config.Config
	Embedder   *embedding.Client
	Store      *vectorstore.Client
	Pipeline   *storage.Pipeline
	Classifier *classifier.Classifier
	ActivityLog *activitylog.Logger
	Metrics    *telemetry.Metrics
}

// Build loads configuration from configDir and constructs every
// collaborator. It never returns an error for a bad config value (config.
// Initialize itself only errors on an unreadable or malformed memory.yaml) — a hook
// binary that can't build its Deps exits 1 via the graceful-hook runtime,
// never panics the host.
func Build(ctx context.Context, configDir string) (*Deps, error) {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, err
	}

	embedder := embedding.New(cfg.Embedding)
	store := vectorstore.New(cfg.VectorStore)
	queue, err := retryqueue.New(cfg.RetryQueue)
	if err != nil {
		return nil, err
	}
	pipeline := storage.New(embedder, store, queue, cfg.Embedding.VectorDimension)

	return &Deps{
		Config:      cfg,
		Embedder:    embedder,
		Store:       store,
		Pipeline:    pipeline,
		Classifier:  buildClassifier(cfg),
		ActivityLog: activitylog.New(cfg.ActivityLog),
		Metrics:     telemetry.New(cfg.Metrics),
	}, nil
}

func buildClassifier(cfg *config.Config) *classifier.Classifier {
	var chain []classifier.Provider
	for _, name := range cfg.Classifier.ProviderOrder {
		pcfg, err := cfg.LLMProviders.Get(name)
		if err != nil {
			continue
		}
		switch pcfg.Type {
		case "claude":
			chain = append(chain, providers.NewClaude(pcfg))
		case "openrouter":
			chain = append(chain, providers.NewOpenRouter(pcfg))
		case "openai":
			chain = append(chain, providers.NewOpenAI(pcfg))
		case "ollama":
			chain = append(chain, providers.NewOllama(pcfg))
		}
	}
	return classifier.New(cfg.Classifier, chain)
}
