// Package freshness implements the on-demand code-pattern freshness
// scanner: ground-truth lookup against synced GitHub code blobs, a linear
// commit-count scan per file, priority classification, and a payload update
// grouped by status (one set_payload request per point; within a group the
// first failed request stops that group's remaining updates) with a
// JSON-lines audit trail, grounded on
// freshness_scanner.py.
package freshness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// Status is the classified freshness state of one code-pattern point.
type Status string

const (
	StatusFresh   Status = "fresh"
	StatusAging   Status = "aging"
	StatusStale   Status = "stale"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// groundTruth is the most recently synced state of a file, per the
// discussions collection's current github_code_blob records.
type groundTruth struct {
	blobHash     string
	lastCommit   string
	lastSyncedAt string
}

// Entry is one point's scan outcome, also the shape appended to the
// JSON-lines audit log.
type Entry struct {
	PointID     string    `json:"point_id"`
	FilePath    string    `json:"file_path"`
	Status      Status    `json:"status"`
	CommitCount int       `json:"commit_count"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Report summarizes one scan run.
type Report struct {
	Scanned  int
	ByStatus map[Status]int
	Entries  []Entry
}

// Scanner runs freshness scans against the vector store.
type Scanner struct {
	store *vectorstore.Client
	cfg   config.FreshnessConfig
}

// New builds a Scanner.
func New(store *vectorstore.Client, cfg config.FreshnessConfig) *Scanner {
	return &Scanner{store: store, cfg: cfg}
}

// Scan runs a full freshness pass over the code-patterns collection,
// optionally restricted to groupID (empty means every project). It never
// returns an error for vector-store unavailability — an unreachable store
// yields an empty Report, matching the scanner's "never throws" contract.
func (s *Scanner) Scan(ctx context.Context, groupID string) Report {
	truth, err := s.buildGroundTruth(ctx)
	if err != nil {
		slog.Warn("freshness: ground-truth lookup failed, returning empty report", "error", err)
		return Report{ByStatus: map[Status]int{}}
	}

	points, err := s.scrollCodePatterns(ctx, groupID)
	if err != nil {
		slog.Warn("freshness: code-patterns scroll failed, returning empty report", "error", err)
		return Report{ByStatus: map[Status]int{}}
	}

	report := Report{ByStatus: map[Status]int{}}
	byStatus := make(map[Status][]string)
	now := time.Now().UTC()

	for _, pt := range points {
		filePath, _ := pt.Payload["file_path"].(string)
		if filePath == "" {
			continue
		}
		storedAt := parseStoredAt(pt.Payload["stored_at"])

		count, err := s.countCommitsSince(ctx, filePath, storedAt)
		if err != nil {
			slog.Warn("freshness: commit scan failed for point", "point_id", pt.ID, "file_path", filePath, "error", err)
			continue
		}

		status := s.classify(truth[filePath], pt.Payload, count)
		report.Scanned++
		report.ByStatus[status]++
		byStatus[status] = append(byStatus[status], pt.ID)
		report.Entries = append(report.Entries, Entry{
			PointID: pt.ID, FilePath: filePath, Status: status, CommitCount: count, CheckedAt: now,
		})
	}

	for status, ids := range byStatus {
		if err := s.applyStatus(ctx, ids, status, now); err != nil {
			slog.Warn("freshness: set_payload failed for status group", "status", status, "count", len(ids), "error", err)
		}
	}

	s.appendAuditLog(report.Entries)
	return report
}

// classify applies the priority-ordered classification rule: explicit blob
// hash mismatch or no ground truth wins over commit-count thresholds.
func (s *Scanner) classify(truth groundTruth, payload map[string]any, commitCount int) Status {
	if truth.blobHash == "" {
		return StatusUnknown
	}
	if blobHash, _ := payload["blob_hash"].(string); blobHash != "" && blobHash != truth.blobHash {
		return StatusExpired
	}
	switch {
	case commitCount >= s.cfg.ExpiredCommits:
		return StatusExpired
	case commitCount >= s.cfg.StaleCommits:
		return StatusStale
	case commitCount >= s.cfg.AgingCommits:
		return StatusAging
	default:
		return StatusFresh
	}
}

func (s *Scanner) buildGroundTruth(ctx context.Context) (map[string]groundTruth, error) {
	truth := make(map[string]groundTruth)
	filter := &vectorstore.Filter{Must: []vectorstore.FieldCondition{
		{Key: "type", Match: map[string]any{"value": string(config.MemoryTypeGitHubCodeBlob)}},
		{Key: "is_current", Match: map[string]any{"value": true}},
	}}

	offset := ""
	for {
		result, err := s.store.Scroll(ctx, string(config.CollectionDiscussions), filter, 200, offset)
		if err != nil {
			return nil, err
		}
		for _, pt := range result.Points {
			filePath, _ := pt.Payload["file_path"].(string)
			if filePath == "" {
				continue
			}
			blobHash, _ := pt.Payload["blob_hash"].(string)
			commitSHA, _ := pt.Payload["commit_sha"].(string)
			syncedAt, _ := pt.Payload["stored_at"].(string)
			truth[filePath] = groundTruth{blobHash: blobHash, lastCommit: commitSHA, lastSyncedAt: syncedAt}
		}
		if result.NextOffset == "" {
			break
		}
		offset = result.NextOffset
	}
	return truth, nil
}

func (s *Scanner) scrollCodePatterns(ctx context.Context, groupID string) ([]vectorstore.Point, error) {
	var filter *vectorstore.Filter
	if groupID != "" {
		filter = &vectorstore.Filter{Must: []vectorstore.FieldCondition{
			{Key: "group_id", Match: map[string]any{"value": groupID}},
		}}
	}

	var all []vectorstore.Point
	offset := ""
	for {
		result, err := s.store.Scroll(ctx, string(config.CollectionCodePatterns), filter, 200, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Points...)
		if result.NextOffset == "" {
			break
		}
		offset = result.NextOffset
	}
	return all, nil
}

// countCommitsSince scrolls github_commit points for filePath with a
// timestamp after since — linear in repo history, acceptable for on-demand
// use.
func (s *Scanner) countCommitsSince(ctx context.Context, filePath string, since time.Time) (int, error) {
	filter := &vectorstore.Filter{Must: []vectorstore.FieldCondition{
		{Key: "type", Match: map[string]any{"value": string(config.MemoryTypeGitHubCommit)}},
		{Key: "file_path", Match: map[string]any{"value": filePath}},
	}}

	count := 0
	offset := ""
	for {
		result, err := s.store.Scroll(ctx, string(config.CollectionDiscussions), filter, 200, offset)
		if err != nil {
			return 0, err
		}
		for _, pt := range result.Points {
			ts := parseStoredAt(pt.Payload["stored_at"])
			if ts.After(since) {
				count++
			}
		}
		if result.NextOffset == "" {
			break
		}
		offset = result.NextOffset
	}
	return count, nil
}

func (s *Scanner) applyStatus(ctx context.Context, pointIDs []string, status Status, checkedAt time.Time) error {
	payload := map[string]any{
		"freshness_status":     string(status),
		"freshness_checked_at": checkedAt.Format(time.RFC3339),
	}
	for _, id := range pointIDs {
		if err := s.store.SetPayload(ctx, string(config.CollectionCodePatterns), id, payload); err != nil {
			return fmt.Errorf("set_payload for point %s: %w", id, err)
		}
	}
	return nil
}

func (s *Scanner) appendAuditLog(entries []Entry) {
	if s.cfg.AuditLogPath == "" || len(entries) == 0 {
		return
	}
	path := expandHome(s.cfg.AuditLogPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("freshness: could not create audit log directory", "error", err)
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("freshness: could not open audit log", "error", err)
		return
	}
	defer f.Close()

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		_, _ = f.Write(append(data, '\n'))
	}
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func parseStoredAt(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
