// Command stop is the hook binary mirroring the host assistant's Stop
// event: it stores the session's closing summary as a protected
// session_summary memory (never subject to reclassification) in the
// discussions collection. Any failure degrades to a non-blocking exit 1
// via the graceful-hook runtime.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codeready-toolchain/aimemory/internal/hookwiring"
	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/filters"
	"github.com/codeready-toolchain/aimemory/pkg/hooks"
	"github.com/codeready-toolchain/aimemory/pkg/memory"
	"github.com/codeready-toolchain/aimemory/pkg/project"
)

type event struct {
	Cwd       string `json:"cwd"`
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

func main() {
	hooks.GracefulHook("stop", run)()
}

func run() error {
	configDir := flag.String("config-dir", os.Getenv("AI_MEMORY_CONFIG_DIR"), "path to configuration directory")
	flag.Parse()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("stop: reading stdin: %w", err)
	}

	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("stop: decoding event: %w", err)
	}
	if ev.Cwd == "" {
		ev.Cwd, _ = os.Getwd()
	}

	summary := filters.SmartTruncate(filters.StripNoise(ev.Summary))
	if len(summary) < 10 {
		slog.Info("stop: summary too short to store, skipping")
		return nil
	}

	ctx := context.Background()
	deps, err := hookwiring.Build(ctx, *configDir)
	if err != nil {
		return fmt.Errorf("stop: building dependencies: %w", err)
	}

	groupID := project.DetectGroupID(deps.Config.ProjectID, ev.Cwd)

	record := &memory.Record{
		Content:    summary,
		GroupID:    groupID,
		Type:       config.MemoryTypeSessionSummary,
		SourceHook: config.SourceHookStop,
		SessionID:  ev.SessionID,
		Collection: config.CollectionDiscussions,
	}

	res := deps.Pipeline.Store(ctx, record)
	if res.Err != nil {
		return fmt.Errorf("stop: storing session summary: %w", res.Err)
	}

	deps.Metrics.RecordDedupOutcome(string(res.Status))
	deps.ActivityLog.Append(fmt.Sprintf("stop: %s session summary for %s (%s)", res.Status, ev.SessionID, res.MemoryID), summary)

	slog.Info("stop: stored session summary", "status", res.Status, "memory_id", res.MemoryID)
	return nil
}
