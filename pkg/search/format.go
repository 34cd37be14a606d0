package search

import "fmt"

// FormattedHit is a Hit rendered for prompt injection: content trimmed (or
// dropped) according to its relevance tier.
type FormattedHit struct {
	Hit
	Content string
}

// FormatTiered applies the three-tier relevance cutoff described for
// search-result injection: score >= high gets full content, score in
// [medium, high) gets content truncated to truncateAt runes plus "...",
// and anything below medium is dropped entirely.
func FormatTiered(hits []Hit, high, medium float64, truncateAt int) []FormattedHit {
	formatted := make([]FormattedHit, 0, len(hits))
	for _, h := range hits {
		if h.Score < medium {
			continue
		}
		content, _ := h.Payload["content"].(string)
		if h.Score < high {
			content = truncateForDisplay(content, truncateAt)
		}
		formatted = append(formatted, FormattedHit{Hit: h, Content: content})
	}
	return formatted
}

func truncateForDisplay(content string, truncateAt int) string {
	runes := []rune(content)
	if len(runes) <= truncateAt {
		return content
	}
	return fmt.Sprintf("%s...", string(runes[:truncateAt]))
}
