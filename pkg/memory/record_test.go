package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func validRecord() *Record {
	return &Record{
		ID:              NewID(),
		Content:         "func doSomething() { return nil }",
		ContentHash:     ContentHash("func doSomething() { return nil }"),
		GroupID:         "proj-1",
		Type:            config.MemoryTypeImplementation,
		SourceHook:      config.SourceHookPostToolUse,
		StoredAt:        time.Now(),
		EmbeddingStatus: config.EmbeddingStatusPending,
		Collection:      config.CollectionCodePatterns,
	}
}

func TestContentHash_IsByteFaithful(t *testing.T) {
	assert.NotEqual(t, ContentHash("hello"), ContentHash("hello "))
	assert.Equal(t, ContentHash("hello"), ContentHash("hello"))
}

func TestValidate_AcceptsValidRecord(t *testing.T) {
	assert.NoError(t, Validate(validRecord()))
}

func TestValidate_RejectsShortContent(t *testing.T) {
	r := validRecord()
	r.Content = "short"
	assert.Error(t, Validate(r))
}

func TestValidate_RejectsTypeNotAllowedForCollection(t *testing.T) {
	r := validRecord()
	r.Type = config.MemoryTypeJiraIssue
	assert.Error(t, Validate(r))
}

func TestValidate_RejectsUnknownEnum(t *testing.T) {
	r := validRecord()
	r.SourceHook = config.SourceHook("not_a_real_hook")
	assert.Error(t, Validate(r))
}

func TestValidate_AggregatesAllViolationsInsteadOfStoppingAtFirst(t *testing.T) {
	r := validRecord()
	r.Content = "short"
	r.GroupID = ""
	r.SourceHook = config.SourceHook("not_a_real_hook")

	err := Validate(r)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Violations), 3)
}
