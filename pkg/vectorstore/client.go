// Package vectorstore implements the vector-store client contract: upsert,
// query_points (including the server-evaluated decay formula), scroll,
// set_payload, and payload-index creation, grounded on qdrant_client.py.
//
// No Qdrant Go client appears anywhere in the retrieved example pack, so
// this talks to the store's REST surface directly over net/http rather than
// adopting an unseen ecosystem dependency — see DESIGN.md.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// ErrUnavailable means the vector store could not be reached or returned a
// non-2xx response. It never propagates past the storage pipeline boundary.
var ErrUnavailable = errors.New("vector store unavailable")

// Point is a single stored vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
	Score   float64        `json:"score,omitempty"`
}

// Filter is a Qdrant-style payload filter: Must conditions are ANDed
// together; MustNot conditions are negated and ANDed in.
type Filter struct {
	Must    []FieldCondition `json:"must,omitempty"`
	MustNot []FieldCondition `json:"must_not,omitempty"`
}

// FieldCondition matches one payload field against a value.
type FieldCondition struct {
	Key   string `json:"key"`
	Match any    `json:"match"`
}

// Client talks to the vector store's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a Client from cfg.
func New(cfg config.VectorStoreConfig) *Client {
	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}
	return &Client{
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Upsert writes points into collection. Non-atomic across points, matching
// the store's own semantics — callers do not get per-point outcomes.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points", collection),
		map[string]any{"points": points}, nil)
}

// SetPayload merges fields into the payload of an existing point, without
// touching its vector.
func (c *Client) SetPayload(ctx context.Context, collection string, pointID string, payload map[string]any) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/payload", collection),
		map[string]any{"points": []string{pointID}, "payload": payload}, nil)
}

// ScrollResult is one page of a scroll operation.
type ScrollResult struct {
	Points     []Point `json:"points"`
	NextOffset string  `json:"next_page_offset,omitempty"`
}

// Scroll iterates a collection's payloads without vector similarity,
// filtered by filter. Used by dedupe (content_hash match) and the
// freshness scanner (ground-truth lookup).
func (c *Client) Scroll(ctx context.Context, collection string, filter *Filter, limit int, offset string) (*ScrollResult, error) {
	body := map[string]any{"limit": limit, "with_payload": true}
	if filter != nil {
		body["filter"] = filter
	}
	if offset != "" {
		body["offset"] = offset
	}
	var result ScrollResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", collection), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueryRequest is the server-evaluated hybrid query: a semantic prefetch
// rescored through a Formula expression.
type QueryRequest struct {
	Query       []float32 `json:"-"`
	Filter      *Filter   `json:"filter,omitempty"`
	Formula     Formula   `json:"-"`
	Limit       int       `json:"limit"`
	HNSWEf      int       `json:"-"`
}

// missingStoredAtDefault is the fixed, very-old timestamp substituted for
// stored_at on a point lacking the field, so it still receives the
// semantic component of the rescore instead of the formula erroring for
// want of a value to feed its exp_decay datetime_key.
const missingStoredAtDefault = "2020-01-01T00:00:00Z"

// QueryPoints performs a single-round-trip prefetch + formula rescore, the
// Go binding for Qdrant's "Formula Query" server-side hybrid scoring.
func (c *Client) QueryPoints(ctx context.Context, collection string, q QueryRequest) ([]Point, error) {
	body := map[string]any{
		"prefetch": map[string]any{
			"query": q.Query,
			"limit": q.Limit * 4,
			"params": map[string]any{"hnsw_ef": q.HNSWEf},
		},
		"query": map[string]any{
			"formula":  q.Formula.Encode(),
			"defaults": map[string]any{"stored_at": missingStoredAtDefault},
		},
		"limit":        q.Limit,
		"with_payload": true,
	}
	if q.Filter != nil {
		body["filter"] = q.Filter
	}
	var result struct {
		Points []Point `json:"points"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/query", collection), body, &result); err != nil {
		return nil, err
	}
	return result.Points, nil
}

// CreateGroupIDIndex creates the tenant-co-locating keyword payload index on
// group_id for collection. This is a critical setup step: failure is
// re-raised rather than swallowed, mirroring qdrant_client.py's explicit
// "do not proceed without index" comment.
func (c *Client) CreateGroupIDIndex(ctx context.Context, collection string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index", collection),
		map[string]any{
			"field_name":   "group_id",
			"field_schema": map[string]any{"type": "keyword", "is_tenant": true},
		}, nil)
}

// CheckHealth reports store reachability; it never raises.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/collections", nil, nil) == nil
}
