// Package embedding implements the HTTP client for the embedding service:
// a pooled client over /embed and /health, with granular connect/read/write
// timeouts grounded on the original embeddings.py httpx configuration.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// Sentinel errors forming the embedding slice of the error taxonomy.
var (
	ErrTimeout = errors.New("EMBEDDING_TIMEOUT")
	ErrFailed  = errors.New("EMBEDDING_ERROR")
)

// Client calls the embedding service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client whose transport is tuned from cfg: a bounded
// connection pool and per-phase timeouts composed into one context budget.
func New(cfg config.EmbeddingConfig) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConnsPerHost: cfg.MaxKeepaliveConns,
		MaxConnsPerHost:     cfg.MaxConns,
		IdleConnTimeout:     cfg.KeepaliveExpiry,
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout + cfg.WriteTimeout + cfg.PoolTimeout,
		},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one vector per input text, in the same order. A context
// deadline exceeded is reported as ErrTimeout; any other transport failure
// or any status other than 200 OK is reported as ErrFailed — callers never see a raw
// net/http error.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrFailed, resp.StatusCode, string(data))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	return out.Embeddings, nil
}

// HealthCheck reports whether the embedding service is reachable and
// returns 200 on GET /health. It never returns an error — a failed check
// is reported as false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// WithTimeout composes a single context deadline from the client's
// configured read timeout — the caller's ctx still wins if it is tighter.
func WithTimeout(ctx context.Context, readTimeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, readTimeout)
}
