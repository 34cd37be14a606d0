// Command memoryd is the long-lived daemon that owns the process-lifetime
// state the hook binaries cannot: the rate limiter's token buckets, the
// classifier's circuit breakers, the retry-queue drainer, and the ops HTTP
// surface. It does not capture, classify or search memories itself — the
// hook binaries under cmd/hooks/... do that, talking to the same on-disk
// retry queue and vector store memoryd also owns; memoryd's only writes to
// the vector store are the drainer's re-upserts of queued records.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/classifier/providers"
	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/opsserver"
	"github.com/codeready-toolchain/aimemory/pkg/ratelimit"
	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
	"github.com/codeready-toolchain/aimemory/pkg/storage"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
	"github.com/codeready-toolchain/aimemory/pkg/version"
)

// retryDrainPollInterval is how often the background drainer retries
// durably-queued entries against the vector store.
const retryDrainPollInterval = 30 * time.Second

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configDir := flag.String("config-dir", getEnv("AI_MEMORY_CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("memoryd: failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("memoryd starting", "version", version.Full(), "config_dir", *configDir)

	store := vectorstore.New(cfg.VectorStore)
	if err := store.CreateGroupIDIndex(ctx, string(config.CollectionCodePatterns)); err != nil {
		slog.Warn("memoryd: payload index creation failed, continuing without it", "error", err)
	}

	queue, err := retryqueue.New(cfg.RetryQueue)
	if err != nil {
		slog.Error("memoryd: failed to open retry queue", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.RateLimit, nil)

	clsfr := buildClassifier(cfg)

	drainer := storage.NewRetryDrainer(queue, store, retryDrainPollInterval, 20)
	drainer.Start(ctx)
	defer drainer.Stop()

	if cfg.Ops.Enabled {
		srv := opsserver.New(limiter, clsfr, queue, drainer)
		go func() {
			if err := srv.Start(cfg.Ops.Addr); err != nil && err != http.ErrServerClosed {
				slog.Error("memoryd: ops server exited", "error", err)
			}
		}()
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				slog.Warn("memoryd: ops server shutdown error", "error", err)
			}
		}()
	}

	slog.Info("memoryd ready")
	<-ctx.Done()
	slog.Info("memoryd shutting down")
}

// buildClassifier wires every configured provider into the fallback chain,
// in cfg.Classifier.ProviderOrder, skipping any name the LLM provider
// registry doesn't recognize rather than failing startup.
func buildClassifier(cfg *config.Config) *classifier.Classifier {
	var chain []classifier.Provider
	for _, name := range cfg.Classifier.ProviderOrder {
		pcfg, err := cfg.LLMProviders.Get(name)
		if err != nil {
			slog.Warn("memoryd: classifier provider not configured, skipping", "provider", name)
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
		default:
			slog.Warn("memoryd: unknown classifier provider type, skipping", "provider", name, "type", pcfg.Type)
		}
	}
	return classifier.New(cfg.Classifier, chain)
}
