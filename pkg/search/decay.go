package search

import (
	"time"

	"github.com/codeready-toolchain/aimemory/pkg/config"
	"github.com/codeready-toolchain/aimemory/pkg/vectorstore"
)

// defaultHalfLifeDays gives each collection's catch-all half-life, used for
// any type not present in typeHalfLifeOverrides.
var defaultHalfLifeDays = map[config.Collection]float64{
	config.CollectionCodePatterns: 14,
	config.CollectionDiscussions:  21,
	config.CollectionConventions:  60,
	config.CollectionJiraData:     30,
}

const globalDefaultHalfLifeDays = 21.0

// typeHalfLifeOverrides maps specific memory types to a half-life in days,
// overriding their collection's catch-all. Types sharing an identical
// half-life are grouped into one formula branch.
var typeHalfLifeOverrides = map[config.MemoryType]float64{
	config.MemoryTypeErrorFix:       7,
	config.MemoryTypeRule:           90,
	config.MemoryTypeGuideline:      90,
	config.MemoryTypeDecision:       60,
	config.MemoryTypeSessionSummary: 14,
}

func halfLifeFor(collection config.Collection) float64 {
	if d, ok := defaultHalfLifeDays[collection]; ok {
		return d
	}
	return globalDefaultHalfLifeDays
}

// BuildDecayFormula constructs the hybrid semantic+decay scoring formula:
//
//	final = w_sem * $score + (1 - w_sem) * sum(type_branch_i * exp_decay(stored_at, scale_i))
//
// Types sharing a half-life are grouped into one FieldCond branch; a
// catch-all branch (type present but not in any override) uses the
// collection's default half-life. A point whose type is absent altogether
// matches neither branch and so retains only the semantic component.
// decayEnabled=false returns nil, signaling the caller to run a vanilla
// semantic search instead.
func BuildDecayFormula(collection config.Collection, decayEnabled bool, semanticWeight float64) vectorstore.Formula {
	if !decayEnabled {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)

	byHalfLife := make(map[float64][]config.MemoryType)
	for t, days := range typeHalfLifeOverrides {
		byHalfLife[days] = append(byHalfLife[days], t)
	}

	var branches []vectorstore.Formula
	var overriddenTypes []config.MemoryType
	for days, types := range byHalfLife {
		overriddenTypes = append(overriddenTypes, types...)
		branches = append(branches, typeBranch(types, days, now))
	}
	branches = append(branches, catchAllBranch(overriddenTypes, halfLifeFor(collection), now))

	decaySum := vectorstore.Sum(branches)

	return vectorstore.Sum{
		vectorstore.Mult{vectorstore.Const(semanticWeight), vectorstore.ScoreRef{}},
		vectorstore.Mult{vectorstore.Const(1 - semanticWeight), decaySum},
	}
}

// typeBranch builds a branch active only when type is one of types, scaled
// by an exponential decay with the given half-life.
func typeBranch(types []config.MemoryType, halfLifeDays float64, now string) vectorstore.Formula {
	return vectorstore.FieldCond{
		Field:  "type",
		Values: typeNames(types),
		Then:   decayExpr(halfLifeDays, now),
		Else:   vectorstore.Const(0),
	}
}

// catchAllBranch builds the branch for any type present but not in
// excludedTypes (i.e. not claimed by an override branch), using the
// collection default. Except (match.except, not must_not+match.any) is what
// keeps a point with no type field at all out of this branch.
func catchAllBranch(excludedTypes []config.MemoryType, halfLifeDays float64, now string) vectorstore.Formula {
	return vectorstore.FieldCond{
		Field:  "type",
		Values: typeNames(excludedTypes),
		Except: true,
		Then:   decayExpr(halfLifeDays, now),
		Else:   vectorstore.Const(0),
	}
}

func typeNames(types []config.MemoryType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// decayExpr builds exp_decay(stored_at, scale) measured back from now.
func decayExpr(halfLifeDays float64, now string) vectorstore.Formula {
	return vectorstore.ExpDecay{
		Field:     "stored_at",
		HalfLifeS: halfLifeDays * 24 * 3600,
		Target:    now,
	}
}
