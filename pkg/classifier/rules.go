package classifier

import (
	"regexp"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// rule is one ordered regex-to-type rule with a static confidence.
type rule struct {
	pattern    *regexp.Regexp
	memoryType config.MemoryType
	confidence float64
}

// ruleChain is evaluated in order; the first match with confidence at or
// above the configured rule threshold wins. Grounded on classifier.py's
// ordered-pattern rule table.
var ruleChain = []rule{
	{regexp.MustCompile(`(?i)\bfix(es|ed)?\b.*\b(bug|issue|error|crash)\b`), config.MemoryTypeErrorFix, 0.85},
	{regexp.MustCompile(`(?i)\btraceback\b|\bstack trace\b|\bexception\b.*\braised\b`), config.MemoryTypeErrorFix, 0.8},
	{regexp.MustCompile(`(?i)\brefactor(ed|ing)?\b`), config.MemoryTypeRefactor, 0.8},
	{regexp.MustCompile(`(?i)\bmust\b|\bshould always\b|\bnever\b.*\brule\b`), config.MemoryTypeRule, 0.75},
	{regexp.MustCompile(`(?i)\bconvention\b|\bstyle guide\b|\bnaming scheme\b`), config.MemoryTypeGuideline, 0.75},
	{regexp.MustCompile(`(?i)\bdecided to\b|\bwe chose\b|\bgoing with\b`), config.MemoryTypeDecision, 0.75},
	{regexp.MustCompile(`(?i)\bpattern\b.*\buse(d|s)?\b`), config.MemoryTypePattern, 0.7},
	{regexp.MustCompile(`(?i)^(func|def|class|type|interface)\b`), config.MemoryTypeImplementation, 0.7},
}

// classifyByRule runs the ordered rule table against content, returning the
// first match whose confidence meets the configured threshold.
func classifyByRule(content string, ruleConfidence float64) (Result, bool) {
	for _, r := range ruleChain {
		if r.confidence < ruleConfidence {
			continue
		}
		if r.pattern.MatchString(content) {
			return Result{Type: r.memoryType, Confidence: r.confidence, Reasoning: "rule match: " + r.pattern.String()}, true
		}
	}
	return Result{}, false
}
