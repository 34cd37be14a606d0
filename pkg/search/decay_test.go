package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

func TestBuildDecayFormula_DisabledReturnsNil(t *testing.T) {
	f := BuildDecayFormula(config.CollectionCodePatterns, false, 0.7)
	assert.Nil(t, f)
}

func TestBuildDecayFormula_EnabledEncodesSemanticAndDecayTerms(t *testing.T) {
	f := BuildDecayFormula(config.CollectionCodePatterns, true, 0.7)
	require.NotNil(t, f)

	encoded := f.Encode()
	sum, ok := encoded["sum"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, sum, 2)

	semanticTerm := sum[0]["mult"].([]map[string]any)
	require.Len(t, semanticTerm, 2)
	assert.InDelta(t, 0.7, semanticTerm[0]["constant"], 1e-9)
	assert.Equal(t, "$score", semanticTerm[1]["variable"])
}

func TestHalfLifeFor_UsesCollectionDefaultsAndGlobalFallback(t *testing.T) {
	assert.Equal(t, 14.0, halfLifeFor(config.CollectionCodePatterns))
	assert.Equal(t, 21.0, halfLifeFor(config.CollectionDiscussions))
	assert.Equal(t, 60.0, halfLifeFor(config.CollectionConventions))
	assert.Equal(t, 30.0, halfLifeFor(config.CollectionJiraData))
	assert.Equal(t, globalDefaultHalfLifeDays, halfLifeFor(config.Collection("unmapped")))
}

func TestTypeBranch_GroupsEqualHalfLivesIntoOneCondition(t *testing.T) {
	branch := typeBranch([]config.MemoryType{config.MemoryTypeRule, config.MemoryTypeGuideline}, 90, "2026-07-29T00:00:00Z")
	encoded := branch.Encode()
	cond := encoded["condition"].(map[string]any)
	filter := cond["filter"]
	assert.NotNil(t, filter)
}

func TestCatchAllBranch_UsesMatchExceptNotMustNot(t *testing.T) {
	branch := catchAllBranch([]config.MemoryType{config.MemoryTypeRule}, 21, "2026-07-29T00:00:00Z")
	encoded := branch.Encode()
	cond := encoded["condition"].(map[string]any)
	filter := cond["filter"].(vectorstore.Filter)
	require.Empty(t, filter.MustNot)
	require.Len(t, filter.Must, 1)
	match, ok := filter.Must[0].Match.(map[string]any)
	require.True(t, ok)
	_, hasExcept := match["except"]
	assert.True(t, hasExcept)
}
