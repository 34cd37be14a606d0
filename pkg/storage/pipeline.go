// Package storage implements the store_memory pipeline: validate,
// content-hash dedupe against the vector store, embed, upsert (or enqueue
// to the durable retry queue on vector-store failure), grounded on
// memory_storage.py. The pipeline does not resolve group_id from a working
// directory; a record without a group_id fails validation.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/embedding"
	"github.com/codeready-toolchain/aimemory/pkg/memory"
	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// Status is the outcome taxonomy store_memory returns to its caller.
type Status string

const (
	StatusStored    Status = "stored"
	StatusDuplicate Status = "duplicate"
	StatusQueued    Status = "queued"
)

// FailureReasonQdrantUnavailable tags retry-queue entries created because
// the vector store rejected or could not be reached for an upsert.
const FailureReasonQdrantUnavailable = "QDRANT_UNAVAILABLE"

// Result is the per-record outcome of store_memory / store_memories_batch.
type Result struct {
	Status          Status
	MemoryID        string
	EmbeddingStatus config.EmbeddingStatus
	Err             error
}

// Pipeline wires the embedding client, vector store, and retry queue into
// the single store_memory operation.
type Pipeline struct {
	embedder *embedding.Client
	store    *vectorstore.Client
	queue    *retryqueue.Queue
	dims     int
}

// New builds a Pipeline from its three collaborators.
func New(embedder *embedding.Client, store *vectorstore.Client, queue *retryqueue.Queue, vectorDimension int) *Pipeline {
	return &Pipeline{embedder: embedder, store: store, queue: queue, dims: vectorDimension}
}

// Store runs the full pipeline for one record: validate, dedupe, embed,
// upsert/enqueue. It never returns an error for infrastructure failure —
// those become StatusQueued results — errors are reserved for a record
// that fails basic validation before any I/O happens.
func (p *Pipeline) Store(ctx context.Context, r *memory.Record) Result {
	if err := memory.Validate(r); err != nil {
		return Result{Err: fmt.Errorf("storage: validation: %w", err)}
	}

	if r.ID == "" {
		r.ID = memory.NewID()
	}
	r.ContentHash = memory.ContentHash(r.Content)

	existingID, err := p.findDuplicate(ctx, r)
	if err != nil {
		slog.Warn("storage: dedupe scroll failed, proceeding without dedupe guarantee", "error", err)
	} else if existingID != "" {
		return Result{Status: StatusDuplicate, MemoryID: existingID}
	}

	vector, embeddingStatus := p.embed(ctx, r.Content)
	r.EmbeddingStatus = embeddingStatus

	payload := recordPayload(r)
	point := vectorstore.Point{ID: r.ID, Vector: vector, Payload: payload}

	if err := p.store.Upsert(ctx, string(r.Collection), []vectorstore.Point{point}); err != nil {
		if qerr := p.enqueueRetry(r, vector, FailureReasonQdrantUnavailable); qerr != nil {
			slog.Error("storage: vector store upsert failed and retry-queue enqueue also failed",
				"error", err, "queue_error", qerr)
		}
		return Result{Status: StatusQueued, MemoryID: r.ID, EmbeddingStatus: embeddingStatus}
	}

	return Result{Status: StatusStored, MemoryID: r.ID, EmbeddingStatus: embeddingStatus}
}

// StoreBatch embeds in one call where possible but preserves per-record
// dedupe semantics, mapping a 1:1 outcome to the input slice.
func (p *Pipeline) StoreBatch(ctx context.Context, records []*memory.Record) []Result {
	results := make([]Result, len(records))

	pending := make([]int, 0, len(records))
	for i, r := range records {
		if err := memory.Validate(r); err != nil {
			results[i] = Result{Err: fmt.Errorf("storage: validation: %w", err)}
			continue
		}
		if r.ID == "" {
			r.ID = memory.NewID()
		}
		r.ContentHash = memory.ContentHash(r.Content)

		existingID, err := p.findDuplicate(ctx, r)
		if err != nil {
			slog.Warn("storage: dedupe scroll failed, proceeding without dedupe guarantee", "error", err)
		} else if existingID != "" {
			results[i] = Result{Status: StatusDuplicate, MemoryID: existingID}
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return results
	}

	texts := make([]string, len(pending))
	for j, i := range pending {
		texts[j] = records[i].Content
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	embeddingFailed := err != nil
	if embeddingFailed {
		slog.Warn("storage: batch embedding failed, storing with zero-vector placeholders", "error", err)
	}

	points := make([]vectorstore.Point, 0, len(pending))
	for j, i := range pending {
		r := records[i]
		var vec []float32
		status := config.EmbeddingStatusPending
		if !embeddingFailed {
			vec = vectors[j]
			status = config.EmbeddingStatusComplete
		} else {
			vec = make([]float32, p.dims)
		}
		r.EmbeddingStatus = status
		points = append(points, vectorstore.Point{ID: r.ID, Vector: vec, Payload: recordPayload(r)})
	}

	byCollection := make(map[config.Collection][]vectorstore.Point)
	for j, i := range pending {
		byCollection[records[i].Collection] = append(byCollection[records[i].Collection], points[j])
	}

	vectorByID := make(map[string][]float32, len(points))
	for _, pt := range points {
		vectorByID[pt.ID] = pt.Vector
	}

	upsertFailed := make(map[string]bool)
	for collection, pts := range byCollection {
		if err := p.store.Upsert(ctx, string(collection), pts); err != nil {
			for _, pt := range pts {
				upsertFailed[pt.ID] = true
			}
		}
	}

	for _, i := range pending {
		r := records[i]
		if upsertFailed[r.ID] {
			if qerr := p.enqueueRetry(r, vectorByID[r.ID], FailureReasonQdrantUnavailable); qerr != nil {
				slog.Error("storage: batch retry-queue enqueue failed", "error", qerr)
			}
			results[i] = Result{Status: StatusQueued, MemoryID: r.ID, EmbeddingStatus: r.EmbeddingStatus}
			continue
		}
		results[i] = Result{Status: StatusStored, MemoryID: r.ID, EmbeddingStatus: r.EmbeddingStatus}
	}

	return results
}

// findDuplicate scrolls the target collection for an existing point sharing
// (content_hash, group_id) — the sole dedupe authority in the pipeline.
func (p *Pipeline) findDuplicate(ctx context.Context, r *memory.Record) (string, error) {
	filter := &vectorstore.Filter{Must: []vectorstore.FieldCondition{
		{Key: "content_hash", Match: r.ContentHash},
		{Key: "group_id", Match: r.GroupID},
	}}
	result, err := p.store.Scroll(ctx, string(r.Collection), filter, 1, "")
	if err != nil {
		return "", err
	}
	if len(result.Points) == 0 {
		return "", nil
	}
	return result.Points[0].ID, nil
}

// embed calls the embedding client, falling back to a zero-vector
// placeholder on timeout or failure so the record is still searchable by
// payload filters, ranking at minimum semantic score until backfilled.
func (p *Pipeline) embed(ctx context.Context, content string) ([]float32, config.EmbeddingStatus) {
	vectors, err := p.embedder.Embed(ctx, []string{content})
	if err != nil {
		reason := "error"
		if errors.Is(err, embedding.ErrTimeout) {
			reason = "timeout"
		}
		slog.Warn("storage: embedding failed, storing zero-vector placeholder", "reason", reason, "error", err)
		return make([]float32, p.dims), config.EmbeddingStatusPending
	}
	return vectors[0], config.EmbeddingStatusComplete
}

// RetryPayload is the JSON shape persisted in the durable retry queue: the
// full record plus the vector it was embedded with, if any, so a drain
// cycle can retry the exact upsert rather than re-embedding.
type RetryPayload struct {
	Record *memory.Record `json:"record"`
	Vector []float32      `json:"vector,omitempty"`
}

func (p *Pipeline) enqueueRetry(r *memory.Record, vector []float32, reason string) error {
	data, err := json.Marshal(RetryPayload{Record: r, Vector: vector})
	if err != nil {
		return err
	}
	return p.queue.Enqueue(data, reason)
}

// recordPayload flattens a Record into the vector-store payload shape,
// excluding the vector itself.
func recordPayload(r *memory.Record) map[string]any {
	payload := map[string]any{
		"id":               r.ID,
		"content":          r.Content,
		"content_hash":     r.ContentHash,
		"group_id":         r.GroupID,
		"type":             string(r.Type),
		"source_hook":      string(r.SourceHook),
		"stored_at":        r.StoredAt,
		"embedding_status": string(r.EmbeddingStatus),
	}
	if r.SessionID != "" {
		payload["session_id"] = r.SessionID
	}
	if r.EmbeddingModel != "" {
		payload["embedding_model"] = r.EmbeddingModel
	}
	if r.Domain != "" {
		payload["domain"] = r.Domain
	}
	if r.Importance != 0 {
		payload["importance"] = r.Importance
	}
	if len(r.Tags) > 0 {
		payload["tags"] = r.Tags
	}
	if len(r.Relationships) > 0 {
		payload["relationships"] = r.Relationships
	}
	if r.FilePath != "" {
		payload["file_path"] = r.FilePath
	}
	if r.BlobHash != "" {
		payload["blob_hash"] = r.BlobHash
	}
	if r.IsCurrent {
		payload["is_current"] = r.IsCurrent
	}
	if r.CommitSHA != "" {
		payload["commit_sha"] = r.CommitSHA
	}
	if r.IssueKey != "" {
		payload["issue_key"] = r.IssueKey
	}
	return payload
}
