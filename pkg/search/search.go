// Package search implements hybrid semantic+decay retrieval: single
// round-trip prefetch-then-rescore queries against the vector store,
// cross-collection fan-out, cascading fallback, and tiered result
// formatting for prompt injection, grounded on memory_search.py.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/embedding"
	"github.com/codeready-toolchain/aimemory/pkg/project"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// Hit is one search result: a vector-store point flattened into its score
// and payload fields.
type Hit struct {
	ID         string
	Score      float64
	Collection config.Collection
	Payload    map[string]any
}

// Params describes a single search call. GroupID resolution follows
// memory_search.py: an empty GroupID with NoProjectFilter unset resolves
// from CWD; NoProjectFilter set means "no project filter at all" (used for
// shared collections such as best-practice conventions), regardless of
// GroupID/CWD.
type Params struct {
	Query           string
	Collection      config.Collection
	GroupID         string
	CWD             string
	NoProjectFilter bool
	Limit           int
	ScoreThreshold  float64
	MemoryTypes     []config.MemoryType
	Source          config.SourceHook
	FastMode        bool
}

// Client executes searches against the embedding service and vector store.
type Client struct {
	embedder  *embedding.Client
	store     *vectorstore.Client
	cfg       config.SearchConfig
	projectID config.ProjectIDConfig
}

// New builds a Client.
func New(embedder *embedding.Client, store *vectorstore.Client, cfg config.SearchConfig, projectID config.ProjectIDConfig) *Client {
	return &Client{embedder: embedder, store: store, cfg: cfg, projectID: projectID}
}

// Search runs the full search operation for one collection: resolve
// group_id, embed the query, build the filter and hybrid decay formula,
// execute a single prefetch+rescore round-trip, and flatten the response.
func (c *Client) Search(ctx context.Context, p Params) ([]Hit, error) {
	groupID, hasGroupFilter := c.resolveGroupID(p)

	vectors, err := c.embedder.Embed(ctx, []string{p.Query})
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("search: embedding service returned no vectors")
	}

	filter := buildFilter(groupID, hasGroupFilter, p.MemoryTypes, p.Source)
	formula := BuildDecayFormula(p.Collection, c.cfg.DecayEnabled, c.cfg.DecaySemanticWeight)

	limit := p.Limit
	if limit <= 0 {
		limit = c.cfg.DefaultLimit
	}
	hnswEf := c.cfg.NormalHNSWEf
	if p.FastMode {
		hnswEf = c.cfg.FastModeHNSWEf
	}

	req := vectorstore.QueryRequest{
		Query:  vectors[0],
		Filter: filter,
		Limit:  limit,
		HNSWEf: hnswEf,
	}
	if formula != nil {
		req.Formula = formula
	} else {
		req.Formula = vectorstore.ScoreRef{}
	}

	points, err := c.store.QueryPoints(ctx, string(p.Collection), req)
	if err != nil {
		return nil, fmt.Errorf("search: query points: %w", err)
	}
	return pointsToHits(points, p.Collection), nil
}

func (c *Client) resolveGroupID(p Params) (string, bool) {
	if p.NoProjectFilter {
		return "", false
	}
	if p.GroupID != "" {
		return p.GroupID, true
	}
	return project.DetectGroupID(c.projectID, p.CWD), true
}

func buildFilter(groupID string, hasGroupFilter bool, memTypes []config.MemoryType, source config.SourceHook) *vectorstore.Filter {
	var conds []vectorstore.FieldCondition
	if hasGroupFilter {
		conds = append(conds, vectorstore.FieldCondition{Key: "group_id", Match: map[string]any{"value": groupID}})
	}
	if len(memTypes) > 0 {
		names := make([]string, len(memTypes))
		for i, t := range memTypes {
			names[i] = string(t)
		}
		conds = append(conds, vectorstore.FieldCondition{Key: "type", Match: map[string]any{"any": names}})
	}
	if source != "" {
		conds = append(conds, vectorstore.FieldCondition{Key: "source_hook", Match: map[string]any{"value": string(source)}})
	}
	if len(conds) == 0 {
		return nil
	}
	return &vectorstore.Filter{Must: conds}
}

func pointsToHits(points []vectorstore.Point, collection config.Collection) []Hit {
	hits := make([]Hit, len(points))
	for i, pt := range points {
		hits[i] = Hit{ID: pt.ID, Score: pt.Score, Collection: collection, Payload: pt.Payload}
	}
	return hits
}

// SearchBothCollections queries the caller's project collection (filtered
// by group_id) and a shared collection (group_id=None, e.g. best-practice
// conventions) concurrently, returning both result sets.
func (c *Client) SearchBothCollections(ctx context.Context, query, groupID, cwd string, shared config.Collection, projectColl config.Collection, limit int, fastMode bool) (project, sharedHits []Hit, err error) {
	var wg sync.WaitGroup
	var projectErr, sharedErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		project, projectErr = c.Search(ctx, Params{
			Query: query, Collection: projectColl, GroupID: groupID, CWD: cwd,
			Limit: limit, FastMode: fastMode,
		})
	}()
	go func() {
		defer wg.Done()
		sharedHits, sharedErr = c.Search(ctx, Params{
			Query: query, Collection: shared, NoProjectFilter: true,
			Limit: limit, FastMode: fastMode,
		})
	}()
	wg.Wait()

	if projectErr != nil {
		return nil, nil, projectErr
	}
	if sharedErr != nil {
		return nil, nil, sharedErr
	}
	return project, sharedHits, nil
}

// CascadingSearch searches primary first; if the result count is below
// limit, it searches each secondary collection in turn to fill up to
// limit, concatenating results and preserving each collection's own score
// ordering (no re-sort across collections).
func (c *Client) CascadingSearch(ctx context.Context, query, groupID, cwd string, primary config.Collection, secondary []config.Collection, limit int, memTypes []config.MemoryType, fastMode bool) ([]Hit, error) {
	var all []Hit

	primaryHits, err := c.Search(ctx, Params{
		Query: query, Collection: primary, GroupID: groupID, CWD: cwd,
		Limit: limit, MemoryTypes: memTypes, FastMode: fastMode,
	})
	if err != nil {
		return nil, err
	}
	all = append(all, primaryHits...)

	for _, next := range secondary {
		if len(all) >= limit {
			break
		}
		remaining := limit - len(all)
		hits, err := c.Search(ctx, Params{
			Query: query, Collection: next, GroupID: groupID, CWD: cwd,
			Limit: remaining, MemoryTypes: memTypes, FastMode: fastMode,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, hits...)
	}
	return all, nil
}

// RetrieveBestPractices is a convenience search over the shared conventions
// collection, with no project filter, defaulting to 3 results.
func (c *Client) RetrieveBestPractices(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 3
	}
	return c.Search(ctx, Params{
		Query:           query,
		Collection:      config.CollectionConventions,
		NoProjectFilter: true,
		Limit:           limit,
	})
}
