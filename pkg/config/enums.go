package config

// MemoryType classifies the kind of content a memory record carries.
type MemoryType string

const (
	MemoryTypeImplementation  MemoryType = "implementation"
	MemoryTypeErrorFix        MemoryType = "error_fix"
	MemoryTypeRefactor        MemoryType = "refactor"
	MemoryTypeRule            MemoryType = "rule"
	MemoryTypeGuideline       MemoryType = "guideline"
	MemoryTypeDecision        MemoryType = "decision"
	MemoryTypePattern         MemoryType = "pattern"
	MemoryTypeSessionSummary  MemoryType = "session_summary"
	MemoryTypeUserMessage     MemoryType = "user_message"
	MemoryTypeAgentResponse   MemoryType = "agent_response"
	MemoryTypeGitHubCodeBlob  MemoryType = "github_code_blob"
	MemoryTypeGitHubCommit    MemoryType = "github_commit"
	MemoryTypeJiraIssue       MemoryType = "jira_issue"
)

// IsValid reports whether t is a member of the closed memory-type enumeration.
func (t MemoryType) IsValid() bool {
	switch t {
	case MemoryTypeImplementation, MemoryTypeErrorFix, MemoryTypeRefactor,
		MemoryTypeRule, MemoryTypeGuideline, MemoryTypeDecision, MemoryTypePattern,
		MemoryTypeSessionSummary, MemoryTypeUserMessage, MemoryTypeAgentResponse,
		MemoryTypeGitHubCodeBlob, MemoryTypeGitHubCommit, MemoryTypeJiraIssue:
		return true
	default:
		return false
	}
}

// protectedTypes can never be reclassified by the rule-based or LLM classifier stages.
var protectedTypes = map[MemoryType]bool{
	MemoryTypeGitHubCodeBlob: true,
	MemoryTypeGitHubCommit:   true,
	MemoryTypeJiraIssue:      true,
	MemoryTypeSessionSummary: true,
}

// IsProtected reports whether t is a type the classifier must not override:
// the connector-owned types and session summaries.
func (t MemoryType) IsProtected() bool {
	return protectedTypes[t]
}

// SourceHook identifies which host integration point produced a memory.
type SourceHook string

const (
	SourceHookPostToolUse      SourceHook = "PostToolUse"
	SourceHookSessionStart     SourceHook = "SessionStart"
	SourceHookStop             SourceHook = "Stop"
	SourceHookUserPromptSubmit SourceHook = "UserPromptSubmit"
	SourceHookPreCompact       SourceHook = "PreCompact"
	SourceHookSubagentStop     SourceHook = "SubagentStop"
	SourceHookJiraSync         SourceHook = "jira_sync"
	SourceHookGitHubSync       SourceHook = "github_sync"
	SourceHookGitHubCodeSync   SourceHook = "github_code_sync"
	SourceHookSDKWrapper       SourceHook = "sdk_wrapper"
	SourceHookAgentSubagent    SourceHook = "agent_subagent"
	SourceHookParzivalAgent    SourceHook = "parzival_agent"
	SourceHookManual           SourceHook = "manual"
	SourceHookBackfill         SourceHook = "backfill"
)

// IsValid reports whether h is a member of the closed source-hook enumeration.
func (h SourceHook) IsValid() bool {
	switch h {
	case SourceHookPostToolUse, SourceHookSessionStart, SourceHookStop,
		SourceHookUserPromptSubmit, SourceHookPreCompact, SourceHookSubagentStop,
		SourceHookJiraSync, SourceHookGitHubSync, SourceHookGitHubCodeSync,
		SourceHookSDKWrapper, SourceHookAgentSubagent, SourceHookParzivalAgent,
		SourceHookManual, SourceHookBackfill:
		return true
	default:
		return false
	}
}

// EmbeddingStatus tracks whether a record's vector embedding is ready.
type EmbeddingStatus string

const (
	EmbeddingStatusComplete EmbeddingStatus = "complete"
	EmbeddingStatusPending  EmbeddingStatus = "pending"
	EmbeddingStatusFailed   EmbeddingStatus = "failed"
)

// IsValid reports whether s is a member of the closed embedding-status enumeration.
func (s EmbeddingStatus) IsValid() bool {
	return s == EmbeddingStatusComplete || s == EmbeddingStatusPending || s == EmbeddingStatusFailed
}

// Collection names one of the four fixed vector-store collections.
type Collection string

const (
	CollectionCodePatterns Collection = "code-patterns"
	CollectionConventions  Collection = "conventions"
	CollectionDiscussions  Collection = "discussions"
	CollectionJiraData     Collection = "jira-data"
)

// IsValid reports whether c is one of the four fixed collections.
func (c Collection) IsValid() bool {
	switch c {
	case CollectionCodePatterns, CollectionConventions, CollectionDiscussions, CollectionJiraData:
		return true
	default:
		return false
	}
}

// FreshnessStatus classifies how stale a github_code_blob point is relative to HEAD.
type FreshnessStatus string

const (
	FreshnessFresh   FreshnessStatus = "fresh"
	FreshnessAging   FreshnessStatus = "aging"
	FreshnessStale   FreshnessStatus = "stale"
	FreshnessExpired FreshnessStatus = "expired"
	FreshnessUnknown FreshnessStatus = "unknown"
)

// IsValid reports whether s is a member of the closed freshness-status enumeration.
func (s FreshnessStatus) IsValid() bool {
	switch s {
	case FreshnessFresh, FreshnessAging, FreshnessStale, FreshnessExpired, FreshnessUnknown:
		return true
	default:
		return false
	}
}
