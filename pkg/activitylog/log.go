// Package activitylog implements the append-only, human-readable activity
// log: every append trims the file back to the last MaxEntries lines,
// grounded on activity_log.py. The read-whole-file-then-rewrite trim is
// O(n) in line count — fine at the 500-line default, not meant for
// high-throughput logging.
package activitylog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// Logger appends lines to a trimmed, human-readable activity log. All
// failures are swallowed — a broken activity log must never fail a hook.
type Logger struct {
	path           string
	maxEntries     int
	fullContentTag string
}

// New returns a Logger bound to cfg, creating the parent directory if
// necessary.
func New(cfg config.ActivityLogConfig) *Logger {
	path := expandHome(cfg.Path)
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return &Logger{path: path, maxEntries: cfg.MaxEntries, fullContentTag: cfg.FullContentTag}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Append writes one line (summary) to the log, optionally followed by a
// FULL_CONTENT: line for UIs that opt into showing the untruncated
// content, then trims the file to the last maxEntries lines. Errors are
// logged nowhere and returned nowhere — by design, matching the original's
// "all I/O failures swallowed" contract; callers invoke this fire-and-forget.
func (l *Logger) Append(summary string, fullContent string) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), summary)
	if fullContent != "" {
		line += "\n" + l.fullContentTag + fullContent
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(line + "\n")
	_ = f.Close()

	l.trim()
}

// trim rewrites the log keeping only its last maxEntries lines.
func (l *Logger) trim() {
	f, err := os.Open(l.path)
	if err != nil {
		return
	}
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	_ = f.Close()

	if len(lines) <= l.maxEntries {
		return
	}
	trimmed := lines[len(lines)-l.maxEntries:]

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".activitylog-*.tmp")
	if err != nil {
		return
	}
	tmpPath := tmp.Name()
	w := bufio.NewWriter(tmp)
	for _, line := range trimmed {
		_, _ = w.WriteString(line + "\n")
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return
	}
	_ = tmp.Close()
	_ = os.Rename(tmpPath, l.path)
}
