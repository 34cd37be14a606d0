// Package retryqueue implements the durable, file-locked retry queue:
// an append-only JSONL file guarded by an advisory exclusive lock, atomic
// rewrite via temp-file-plus-rename, and a capped exponential backoff
// schedule, grounded on queue.py.
package retryqueue

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// ErrLockTimeout means the advisory exclusive lock could not be acquired
// within the configured timeout.
var ErrLockTimeout = errors.New("retry queue lock timeout")

// Entry is one durable retry-queue record.
type Entry struct {
	ID           string          `json:"id"`
	MemoryData   json.RawMessage `json:"memory_data"`
	FailureReason string         `json:"failure_reason"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	QueuedAt     time.Time       `json:"queued_at"`
	NextRetryAt  time.Time       `json:"next_retry_at"`
}

// Queue is the durable retry queue, backed by one JSONL file.
type Queue struct {
	path        string
	lockPath    string
	maxRetries  int
	backoff     []time.Duration
	lockTimeout time.Duration
}

// New creates the queue directory (mode 700) if needed and returns a Queue
// bound to cfg.Dir/cfg.FileName (mode 600).
func New(cfg config.RetryQueueConfig) (*Queue, error) {
	dir := expandHome(cfg.Dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating retry queue dir: %w", err)
	}
	path := filepath.Join(dir, cfg.FileName)
	if _, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND, 0o600); err != nil {
		return nil, fmt.Errorf("creating retry queue file: %w", err)
	}
	return &Queue{
		path:        path,
		lockPath:    path + ".lock",
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.BackoffSteps,
		lockTimeout: cfg.LockTimeout,
	}, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// withLock acquires an exclusive advisory lock on a dedicated lock file
// (rather than the data file itself, so readers can always see a
// consistent fd) with a polling timeout, runs fn, then releases it.
func (q *Queue) withLock(fn func() error) error {
	f, err := os.OpenFile(q.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer f.Close()

	deadline := time.Now().Add(q.lockTimeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(20 * time.Millisecond)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn()
}

// Enqueue appends a new entry with the first backoff step as its next
// retry time.
func (q *Queue) Enqueue(memoryData json.RawMessage, failureReason string) error {
	entry := Entry{
		ID:            uuid.NewString(),
		MemoryData:    memoryData,
		FailureReason: failureReason,
		RetryCount:    0,
		MaxRetries:    q.maxRetries,
		QueuedAt:      time.Now(),
		NextRetryAt:   time.Now().Add(q.backoffFor(0)),
	}
	return q.withLock(func() error {
		return q.appendLine(entry)
	})
}

func (q *Queue) appendLine(entry Entry) error {
	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func (q *Queue) backoffFor(retryCount int) time.Duration {
	if len(q.backoff) == 0 {
		return 0
	}
	if retryCount >= len(q.backoff) {
		return q.backoff[len(q.backoff)-1]
	}
	return q.backoff[retryCount]
}

// readAll reads every entry currently on disk, skipping and logging corrupt
// lines rather than failing the whole read.
func (q *Queue) readAll() ([]Entry, error) {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			slog.Warn("skipping corrupt retry queue line", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// rewriteAll atomically replaces the queue file's contents via a temp file
// in the same directory followed by fsync and rename.
func (q *Queue) rewriteAll(entries []Entry) error {
	dir := filepath.Dir(q.path)
	tmp, err := os.CreateTemp(dir, ".retryqueue-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, q.path)
}

// GetPending returns entries whose next_retry_at has passed and, by
// default, whose retry_count is still below max_retries — exhausted
// entries are retained on disk for inspection but are not retry
// candidates. Pass includeExhausted=true to get those too. limit caps the
// number of entries returned; 0 means unlimited.
func (q *Queue) GetPending(limit int, includeExhausted bool) ([]Entry, error) {
	var pending []Entry
	err := q.withLock(func() error {
		entries, err := q.readAll()
		if err != nil {
			return err
		}
		now := time.Now()
		for _, e := range entries {
			if e.NextRetryAt.After(now) {
				continue
			}
			if !includeExhausted && e.RetryCount >= e.MaxRetries {
				continue
			}
			pending = append(pending, e)
			if limit > 0 && len(pending) >= limit {
				break
			}
		}
		return nil
	})
	return pending, err
}

// Dequeue removes entry id from the queue as an atomic read-modify-write
// under the same lock used by Enqueue.
func (q *Queue) Dequeue(id string) error {
	return q.withLock(func() error {
		entries, err := q.readAll()
		if err != nil {
			return err
		}
		kept := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		return q.rewriteAll(kept)
	})
}

// MarkFailed increments an entry's retry count and schedules its next
// attempt with the backoff schedule. An entry that has exhausted
// max_retries is left in place rather than dropped — it stops being
// returned by GetPending's default (non-exhausted) filter but remains on
// disk: GetStats still counts it, and GetPending(includeExhausted=true)
// returns it once its next_retry_at has passed.
func (q *Queue) MarkFailed(id string, reason string) error {
	return q.withLock(func() error {
		entries, err := q.readAll()
		if err != nil {
			return err
		}
		for i, e := range entries {
			if e.ID != id {
				continue
			}
			e.RetryCount++
			e.FailureReason = reason
			e.NextRetryAt = time.Now().Add(q.backoffFor(e.RetryCount))
			entries[i] = e
		}
		return q.rewriteAll(entries)
	})
}

// Stats summarizes queue depth for the ops surface.
type Stats struct {
	Total           int
	ReadyForRetry   int
	AwaitingBackoff int
	Exhausted       int
	ByFailureReason map[string]int
}

// GetStats returns current queue statistics: every entry falls into
// exactly one of ReadyForRetry, AwaitingBackoff, or Exhausted (exhausted
// entries count there regardless of next_retry_at), plus a running count
// by failure_reason across all entries.
func (q *Queue) GetStats() (Stats, error) {
	stats := Stats{ByFailureReason: make(map[string]int)}
	err := q.withLock(func() error {
		entries, err := q.readAll()
		if err != nil {
			return err
		}
		stats.Total = len(entries)
		now := time.Now()
		for _, e := range entries {
			switch {
			case e.RetryCount >= e.MaxRetries:
				stats.Exhausted++
			case !e.NextRetryAt.After(now):
				stats.ReadyForRetry++
			default:
				stats.AwaitingBackoff++
			}
			reason := e.FailureReason
			if reason == "" {
				reason = "unknown"
			}
			stats.ByFailureReason[reason]++
		}
		return nil
	})
	return stats, err
}
