// Command post-tool-use is the hook binary mirroring the host assistant's
// PostToolUse event: it reads one JSON event from stdin, applies the
// code-pattern content filter, optionally reclassifies the type, and
// stores the result through the capture → classify → store pipeline.
// Every failure degrades to a non-blocking exit 1 via the graceful-hook
// runtime; it never blocks or crashes the host.
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

// event is the minimal PostToolUse payload this hook understands: a tool
// invocation that wrote or edited a file, plus enough session context to
// attribute the resulting memory.
type event struct {
	Cwd         string `json:"cwd"`
	SessionID   string `json:"session_id"`
	ToolName    string `json:"tool_name"`
	FilePath    string `json:"file_path"`
	Content     string `json:"content"`
	Language    string `json:"language"`
	MemoryType  string `json:"memory_type,omitempty"` // caller's best guess; the classifier may override
}

func main() {
	hooks.GracefulHook("post_tool_use", run)()
}

func run() error {
	configDir := flag.String("config-dir", os.Getenv("AI_MEMORY_CONFIG_DIR"), "path to configuration directory")
	flag.Parse()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("post-tool-use: reading stdin: %w", err)
	}

	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("post-tool-use: decoding event: %w", err)
	}

	if ev.Cwd == "" {
		ev.Cwd, _ = os.Getwd()
	}

	result := filters.FilterCode(ev.FilePath, ev.Content, ev.Language)
	if !result.Keep {
		slog.Info("post_tool_use: content filtered out, no memory stored", "file_path", ev.FilePath)
		return nil
	}

	ctx := context.Background()
	deps, err := hookwiring.Build(ctx, *configDir)
	if err != nil {
		return fmt.Errorf("post-tool-use: building dependencies: %w", err)
	}

	groupID := project.DetectGroupID(deps.Config.ProjectID, ev.Cwd)

	memType := config.MemoryType(ev.MemoryType)
	if !memType.IsValid() {
		memType = config.MemoryTypeImplementation
	}

	outcome := deps.Classifier.Classify(ctx, result.Content, config.CollectionCodePatterns, memType)
	if outcome.WasReclassified {
		slog.Info("post_tool_use: reclassified", "from", memType, "to", outcome.Type, "provider", outcome.ProviderUsed)
		memType = outcome.Type
	}

	record := &memory.Record{
		Content:    result.Content,
		GroupID:    groupID,
		Type:       memType,
		SourceHook: config.SourceHookPostToolUse,
		SessionID:  ev.SessionID,
		Collection: config.CollectionCodePatterns,
		FilePath:   ev.FilePath,
	}

	res := deps.Pipeline.Store(ctx, record)
	if res.Err != nil {
		return fmt.Errorf("post-tool-use: storing memory: %w", res.Err)
	}

	deps.Metrics.RecordDedupOutcome(string(res.Status))
	deps.ActivityLog.Append(fmt.Sprintf("post_tool_use: %s %s (%s)", res.Status, ev.FilePath, res.MemoryID), "")

	slog.Info("post_tool_use: stored", "status", res.Status, "memory_id", res.MemoryID, "embedding_status", res.EmbeddingStatus)
	return nil
}
