package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// DrainerStatus mirrors the idle/working worker-health taxonomy used
// elsewhere in this codebase.
type DrainerStatus string

const (
	DrainerStatusIdle    DrainerStatus = "idle"
	DrainerStatusWorking DrainerStatus = "working"
)

// DrainerHealth is a snapshot of the retry-queue drainer's activity.
type DrainerHealth struct {
	Status         DrainerStatus
	EntriesDrained int
	LastPollAt     time.Time
}

// RetryDrainer periodically retries entries in the durable retry queue
// against the vector store, re-enqueueing on repeated failure via
// MarkFailed. Its Start/Stop/Health lifecycle follows this codebase's
// worker-pool convention, simplified to a single poller since retry-queue
// draining has no per-item concurrency requirement.
type RetryDrainer struct {
	queue        *retryqueue.Queue
	store        *vectorstore.Client
	pollInterval time.Duration
	batchLimit   int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	status  DrainerStatus
	drained int
	lastRun time.Time
}

// NewRetryDrainer builds a RetryDrainer polling every pollInterval, pulling
// up to batchLimit pending entries per cycle.
func NewRetryDrainer(queue *retryqueue.Queue, store *vectorstore.Client, pollInterval time.Duration, batchLimit int) *RetryDrainer {
	return &RetryDrainer{
		queue:        queue,
		store:        store,
		pollInterval: pollInterval,
		batchLimit:   batchLimit,
		stopCh:       make(chan struct{}),
		status:       DrainerStatusIdle,
	}
}

// Start begins the poll loop in a goroutine. Safe to call once.
func (d *RetryDrainer) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

// Stop signals the poll loop to exit and waits for it to finish.
func (d *RetryDrainer) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

// Health reports the drainer's current activity snapshot.
func (d *RetryDrainer) Health() DrainerHealth {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DrainerHealth{Status: d.status, EntriesDrained: d.drained, LastPollAt: d.lastRun}
}

func (d *RetryDrainer) run(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

func (d *RetryDrainer) drainOnce(ctx context.Context) {
	d.mu.Lock()
	d.status = DrainerStatusWorking
	d.lastRun = time.Now()
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.status = DrainerStatusIdle
		d.mu.Unlock()
	}()

	entries, err := d.queue.GetPending(d.batchLimit, false)
	if err != nil {
		slog.Error("storage: retry drainer failed to read pending entries", "error", err)
		return
	}

	for _, entry := range entries {
		var payload RetryPayload
		if err := json.Unmarshal(entry.MemoryData, &payload); err != nil || payload.Record == nil {
			slog.Error("storage: retry-queue entry is not a valid memory record, dropping",
				"id", entry.ID, "error", err)
			_ = d.queue.Dequeue(entry.ID)
			continue
		}
		record := payload.Record

		point := vectorstore.Point{ID: record.ID, Vector: payload.Vector, Payload: recordPayload(record)}
		if err := d.store.Upsert(ctx, string(record.Collection), []vectorstore.Point{point}); err != nil {
			if merr := d.queue.MarkFailed(entry.ID, entry.FailureReason); merr != nil {
				slog.Error("storage: retry drainer failed to mark entry failed", "id", entry.ID, "error", merr)
			}
			continue
		}

		if err := d.queue.Dequeue(entry.ID); err != nil {
			slog.Error("storage: retry drainer failed to dequeue succeeded entry", "id", entry.ID, "error", err)
			continue
		}
		d.mu.Lock()
		d.drained++
		d.mu.Unlock()
	}
}
