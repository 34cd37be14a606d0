// Package memory defines the MemoryRecord data model and its validation,
// content-hashing, and enum-membership rules.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// Relationship links one memory to another by id with a typed edge label.
type Relationship struct {
	TargetID string `json:"target_id"`
	Type     string `json:"type"` // e.g. "supersedes", "references", "derived_from"
}

// Record is a single stored unit of semantic memory.
type Record struct {
	ID              string                 `json:"id"`
	Content         string                 `json:"content"`
	ContentHash     string                 `json:"content_hash"`
	GroupID         string                 `json:"group_id"`
	Type            config.MemoryType      `json:"type"`
	SourceHook      config.SourceHook      `json:"source_hook"`
	SessionID       string                 `json:"session_id,omitempty"`
	StoredAt        time.Time              `json:"stored_at"`
	EmbeddingStatus config.EmbeddingStatus `json:"embedding_status"`
	EmbeddingModel  string                 `json:"embedding_model,omitempty"`
	Domain          string                 `json:"domain,omitempty"`
	Importance      int                    `json:"importance,omitempty"` // 1-5
	Tags            []string               `json:"tags,omitempty"`
	Relationships   []Relationship         `json:"relationships,omitempty"`
	Collection      config.Collection      `json:"collection"`

	// Connector-owned fields, set for github_code_blob / github_commit /
	// jira_issue records (FilePath is also set on post-tool-use code
	// records); the classifier must never overwrite these.
	FilePath  string `json:"file_path,omitempty"`
	BlobHash  string `json:"blob_hash,omitempty"`
	IsCurrent bool   `json:"is_current,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	IssueKey  string `json:"issue_key,omitempty"`
}

const (
	minContentLen = 10
	maxContentLen = 100000
)

// NewID generates a new record identifier.
func NewID() string { return uuid.NewString() }

// ContentHash returns the lowercase hex SHA-256 of content, byte-faithful —
// no normalization, trimming, or case-folding is applied before hashing,
// so two semantically-identical strings that differ by even one byte of
// whitespace hash differently (deliberate: this is an exact-match dedupe
// key, not a fuzzy one).
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
