package filters

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const conversationTruncateAt = 4000

// menuLineRe matches CLI-menu-style lines ("1. Do this", "> Select an
// option") that carry no durable semantic content.
var menuLineRe = regexp.MustCompile(`^\s*(\d+[.)]|[>*-])\s`)

// separatorLineRe matches horizontal-rule/box-drawing separator lines.
var separatorLineRe = regexp.MustCompile(`^[\s=\-_*#~]{5,}$`)

// asciiArtLineRe matches lines dominated by box-drawing or block characters.
var asciiArtLineRe = regexp.MustCompile(`^[\s│┃┆┊║╎╏┆╔╗╚╝╠╣▓▒░█]{5,}$`)

// StripNoise removes menu lines, separators, and ASCII-art lines from a
// conversational message, collapsing the remaining lines back into a
// single string.
func StripNoise(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if menuLineRe.MatchString(line) || separatorLineRe.MatchString(line) || asciiArtLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// SmartTruncate shortens content to at most conversationTruncateAt runes,
// marker included, preferring to cut at the last sentence or paragraph
// boundary before the limit, else at the last space rather than mid-word.
// Only a window with no space in it is cut mid-word.
func SmartTruncate(content string) string {
	runes := []rune(content)
	if len(runes) <= conversationTruncateAt {
		return content
	}
	window := string(runes[:conversationTruncateAt-len("... [truncated]")])
	if idx := strings.LastIndexAny(window, ".!?\n"); idx > len(window)/2 {
		return window[:idx+1] + " [truncated]"
	}
	if idx := strings.LastIndex(window, " "); idx > 0 {
		window = window[:idx]
	}
	return window + "... [truncated]"
}

// IsDuplicateMessage reports whether content's hash matches any hash in
// recentHashes — the conversation capture path's cheap duplicate check,
// distinct from the storage pipeline's content-hash dedupe (this one
// compares against the caller-supplied recent hashes, not the whole
// store). No time window is applied: which hashes count as recent is up
// to the caller.
func IsDuplicateMessage(content string, recentHashes []string) bool {
	h := hashMessage(content)
	for _, existing := range recentHashes {
		if existing == h {
			return true
		}
	}
	return false
}

func hashMessage(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}
