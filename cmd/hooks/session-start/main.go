// Command session-start is the hook binary mirroring the host assistant's
// SessionStart event: it retrieves the shared best-practice conventions
// plus the project's own recent discussions, formats them for context
// injection, and writes the result to stdout as JSON. Nothing it does can
// block or crash the host — any failure degrades to an empty injection
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
	"github.com/codeready-toolchain/aimemory/pkg/hooks"
	"github.com/codeready-toolchain/aimemory/pkg/search"
)

type event struct {
	Cwd       string `json:"cwd"`
	SessionID string `json:"session_id"`
	Query     string `json:"query,omitempty"` // optional seed query; defaults to a generic primer
}

type injection struct {
	BestPractices []search.FormattedHit `json:"best_practices"`
	RecentContext []search.FormattedHit `json:"recent_context"`
}

func main() {
	hooks.GracefulHook("session_start", run)()
}

func run() error {
	configDir := flag.String("config-dir", os.Getenv("AI_MEMORY_CONFIG_DIR"), "path to configuration directory")
	flag.Parse()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("session-start: reading stdin: %w", err)
	}

	var ev event
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("session-start: decoding event: %w", err)
		}
	}
	if ev.Cwd == "" {
		ev.Cwd, _ = os.Getwd()
	}
	if ev.Query == "" {
		ev.Query = "project conventions and recent work"
	}

	ctx := context.Background()
	deps, err := hookwiring.Build(ctx, *configDir)
	if err != nil {
		return fmt.Errorf("session-start: building dependencies: %w", err)
	}

	searcher := search.New(deps.Embedder, deps.Store, deps.Config.Search, deps.Config.ProjectID)

	practices, err := searcher.RetrieveBestPractices(ctx, ev.Query, 3)
	if err != nil {
		slog.Warn("session_start: best-practice retrieval failed, continuing without it", "error", err)
	}

	recent, err := searcher.Search(ctx, search.Params{
		Query:      ev.Query,
		Collection: config.CollectionDiscussions,
		CWD:        ev.Cwd,
		Limit:      deps.Config.Search.DefaultLimit,
	})
	if err != nil {
		slog.Warn("session_start: recent-context search failed, continuing without it", "error", err)
	}

	out := injection{
		BestPractices: search.FormatTiered(practices, deps.Config.Search.HighConfidence, deps.Config.Search.MediumConfidence, deps.Config.Search.TruncateAt),
		RecentContext: search.FormatTiered(recent, deps.Config.Search.HighConfidence, deps.Config.Search.MediumConfidence, deps.Config.Search.TruncateAt),
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("session-start: encoding injection: %w", err)
	}

	deps.ActivityLog.Append(fmt.Sprintf("session_start: injected %d best-practice and %d recent hits",
		len(out.BestPractices), len(out.RecentContext)), "")
	return nil
}
