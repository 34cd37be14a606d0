package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// TraceEvent is one JSON trace record written to the trace buffer directory.
type TraceEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	TraceID       string         `json:"trace_id"`
	SpanID        string         `json:"span_id,omitempty"`
	ParentSpanID  string         `json:"parent_span_id,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	ProjectID     string         `json:"project_id,omitempty"`
	StartTime     *time.Time     `json:"start_time,omitempty"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// TraceBuffer writes trace events as individual JSON files under a
// directory, behind a kill-switch and a size cap tracked with an
// incremental byte counter so repeated writes never rescan the directory.
type TraceBuffer struct {
	cfg config.TraceConfig

	mu         sync.Mutex
	sizeBytes  int64
	calibrated bool
}

// NewTraceBuffer returns a TraceBuffer bound to cfg.
func NewTraceBuffer(cfg config.TraceConfig) *TraceBuffer {
	return &TraceBuffer{cfg: cfg}
}

// Emit writes one trace event. It checks the enabled kill-switch and the
// buffer-size cap first, then writes atomically via temp-file-plus-rename,
// and never returns an error to the caller — emission failures are
// logged-nowhere-and-ignored by design, matching the original's
// never-raises contract. Returns whether the event was actually written.
func (b *TraceBuffer) Emit(event TraceEvent) bool {
	if !b.cfg.Enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.calibrated {
		b.calibrate()
	}
	if b.sizeBytes >= int64(b.cfg.MaxBufferMB)*1024*1024 {
		return false
	}

	if event.TraceID == "" {
		event.TraceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	_ = os.MkdirAll(b.cfg.BufferDir, 0o755)
	tmpPath := filepath.Join(b.cfg.BufferDir, ".tmp_"+uuid.NewString())
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return false
	}
	finalPath := filepath.Join(b.cfg.BufferDir, uuid.NewString()+".json")
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return false
	}

	b.sizeBytes += int64(len(data))
	return true
}

// calibrate performs the one-time O(n) directory scan to establish the
// current buffer size; subsequent writes increment sizeBytes directly.
func (b *TraceBuffer) calibrate() {
	b.calibrated = true
	entries, err := os.ReadDir(b.cfg.BufferDir)
	if err != nil {
		b.sizeBytes = 0
		return
	}
	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	b.sizeBytes = total
}
