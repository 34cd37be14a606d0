package memory

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// ValidationError aggregates every violation found while validating a
// Record, rather than stopping at the first — callers needing the raw
// list (e.g. to report all of them to a caller) can range over Violations
// directly instead of parsing Error().
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payload validation failed: %s", strings.Join(e.Violations, "; "))
}

// payloadShape carries only the struct-tag-checkable fields of Record —
// length bounds and presence — to github.com/go-playground/validator/v10.
// Enum membership and cross-field rules (type valid for this collection)
// are not expressible as clean struct tags and are checked separately in
// Validate, mirroring how the original source keeps its enum checks as
// plain Python rather than schema-declared constraints.
type payloadShape struct {
	Content string `validate:"required,min=10,max=100000"`
	GroupID string `validate:"required"`
}

var structValidator = validator.New()

// collectionAllowedTypes restricts which MemoryType values may be stored in
// each collection. A type not listed for its collection fails validation.
var collectionAllowedTypes = map[config.Collection]map[config.MemoryType]bool{
	config.CollectionCodePatterns: set(
		config.MemoryTypeImplementation, config.MemoryTypeErrorFix, config.MemoryTypeRefactor,
		config.MemoryTypePattern, config.MemoryTypeGitHubCodeBlob,
	),
	config.CollectionConventions: set(
		config.MemoryTypeRule, config.MemoryTypeGuideline, config.MemoryTypeDecision,
	),
	config.CollectionDiscussions: set(
		config.MemoryTypeSessionSummary, config.MemoryTypeUserMessage, config.MemoryTypeAgentResponse,
		config.MemoryTypeGitHubCodeBlob, config.MemoryTypeGitHubCommit,
	),
	config.CollectionJiraData: set(
		config.MemoryTypeJiraIssue,
	),
}

func set(types ...config.MemoryType) map[config.MemoryType]bool {
	m := make(map[config.MemoryType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// IsTypeAllowedForCollection reports whether t may be stored in c — the
// same cross-field rule Validate enforces, exposed for the classifier's
// reclassification-target check (§4.F).
func IsTypeAllowedForCollection(c config.Collection, t config.MemoryType) bool {
	return collectionAllowedTypes[c][t]
}

// Validate checks r against every invariant a record must satisfy before it
// is eligible for storage: required fields, content length bounds, closed
// enum membership, and type-valid-for-collection. Every violation found is
// collected and returned together as a *ValidationError rather than
// stopping at the first.
func Validate(r *Record) error {
	violations := violationsFor(r)
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func violationsFor(r *Record) []string {
	var violations []string

	shape := payloadShape{Content: r.Content, GroupID: r.GroupID}
	if err := structValidator.Struct(shape); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			violations = append(violations, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}

	if !r.Type.IsValid() {
		violations = append(violations, fmt.Sprintf("invalid memory type %q", r.Type))
	}
	if !r.SourceHook.IsValid() {
		violations = append(violations, fmt.Sprintf("invalid source hook %q", r.SourceHook))
	}
	if !r.Collection.IsValid() {
		violations = append(violations, fmt.Sprintf("invalid collection %q", r.Collection))
	}
	if !r.EmbeddingStatus.IsValid() {
		violations = append(violations, fmt.Sprintf("invalid embedding status %q", r.EmbeddingStatus))
	}

	if r.Collection.IsValid() && r.Type.IsValid() {
		if allowed := collectionAllowedTypes[r.Collection]; !allowed[r.Type] {
			violations = append(violations, fmt.Sprintf("type %q is not valid for collection %q", r.Type, r.Collection))
		}
	}

	if r.Importance != 0 && (r.Importance < 1 || r.Importance > 5) {
		violations = append(violations, fmt.Sprintf("importance must be between 1 and 5, got %d", r.Importance))
	}

	return violations
}
