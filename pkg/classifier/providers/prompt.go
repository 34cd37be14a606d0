// Package providers implements the concrete LLM classification backends
// behind the classifier.Provider interface: claude (via
// github.com/anthropics/anthropic-sdk-go), and openrouter/openai/ollama
// (via plain net/http JSON calls against OpenAI-compatible chat-completion
// endpoints) — grounded on the original's four separate provider modules.
package providers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// allowedTypesFor lists the closed type set for a collection, used to build
// the fixed prompt template each provider sends upstream.
func allowedTypesFor(collection config.Collection) []config.MemoryType {
	switch collection {
	case config.CollectionCodePatterns:
		return []config.MemoryType{config.MemoryTypeImplementation, config.MemoryTypeErrorFix, config.MemoryTypeRefactor, config.MemoryTypePattern}
	case config.CollectionConventions:
		return []config.MemoryType{config.MemoryTypeRule, config.MemoryTypeGuideline, config.MemoryTypeDecision}
	case config.CollectionDiscussions:
		return []config.MemoryType{config.MemoryTypeSessionSummary, config.MemoryTypeUserMessage, config.MemoryTypeAgentResponse}
	default:
		return nil
	}
}

// BuildPrompt renders the fixed classification prompt template: the closed
// type set, classification rules, and a strict JSON response schema.
func BuildPrompt(content string, collection config.Collection, currentType config.MemoryType) string {
	types := allowedTypesFor(collection)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	return fmt.Sprintf(`Classify the following content into exactly one of these types: %s.

Current type: %s
Content:
%s

Respond with ONLY a JSON object of this exact shape, no other text:
{"classified_type": "<one of the allowed types>", "confidence": <float 0-1>, "reasoning": "<one sentence>", "tags": ["<tag>", ...]}`,
		strings.Join(names, ", "), currentType, content)
}

// rawResponse mirrors the strict JSON schema the prompt demands.
type rawResponse struct {
	ClassifiedType string   `json:"classified_type"`
	Confidence     any      `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	Tags           []string `json:"tags"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
var bareJSONRe = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse extracts classified_type/confidence/reasoning/tags from an
// LLM's free-form reply. It tolerates clean JSON, JSON fenced in triple
// backticks, and JSON with surrounding prose — the three shapes the
// original's parser is documented to handle.
func ParseResponse(text string) (typ config.MemoryType, confidence float64, reasoning string, tags []string, err error) {
	candidate := strings.TrimSpace(text)

	if m := fencedJSONRe.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	} else if m := bareJSONRe.FindString(candidate); m != "" {
		candidate = m
	}

	var raw rawResponse
	if err = json.Unmarshal([]byte(candidate), &raw); err != nil {
		return "", 0, "", nil, fmt.Errorf("classifier: unparseable LLM response: %w", err)
	}
	if raw.ClassifiedType == "" {
		return "", 0, "", nil, fmt.Errorf("classifier: response missing classified_type")
	}

	confidence, err = coerceFloat(raw.Confidence)
	if err != nil {
		return "", 0, "", nil, err
	}

	tags = raw.Tags
	if tags == nil {
		tags = []string{}
	}
	return config.MemoryType(raw.ClassifiedType), confidence, raw.Reasoning, tags, nil
}

func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("classifier: confidence not numeric: %w", err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("classifier: confidence field missing or wrong type")
	}
}
