// Package filters implements the pre-classification content filters: the
// code-pattern filter (extension/path skip lists, significance detection,
// minimum line count, truncation) and the conversation filter (menu/ASCII
// stripping, smart truncation, duplicate detection), grounded on the
// original filters.py.
package filters

import (
	"path/filepath"
	"strings"
)

// skippedExtensions never produce a code-pattern memory regardless of
// content — binary/generated/lockfile-style artifacts.
var skippedExtensions = map[string]bool{
	".lock": true, ".sum": true, ".min.js": true, ".map": true,
	".png": true, ".jpg": true, ".gif": true, ".ico": true, ".woff": true,
	".exe": true, ".bin": true, ".pyc": true,
}

// skippedPathPatterns are substrings that, if present anywhere in a path,
// exclude it from consideration (vendored/generated trees).
var skippedPathPatterns = []string{
	"/node_modules/", "/vendor/", "/.git/", "/dist/", "/build/",
	"/__pycache__/", "/.venv/", "/venv/",
}

const minSignificantLines = 3
const codeTruncateAt = 2000
const truncationMarker = "\n... [truncated]"

// CodeFilterResult is the outcome of filtering one piece of code content.
type CodeFilterResult struct {
	Keep    bool
	Content string
}

// FilterCode applies the code-pattern filter pipeline: extension skip, path
// skip, line-count floor, significance detection, then truncation with a
// trailing marker if content exceeds the size cap.
func FilterCode(path, content, language string) CodeFilterResult {
	if shouldSkipPath(path) {
		return CodeFilterResult{Keep: false}
	}

	lineCount := strings.Count(content, "\n") + 1
	if lineCount < minSignificantLines {
		return CodeFilterResult{Keep: false}
	}

	if !IsSignificant(content, language) {
		return CodeFilterResult{Keep: false}
	}

	return CodeFilterResult{Keep: true, Content: truncate(content)}
}

func shouldSkipPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if skippedExtensions[ext] || strings.HasSuffix(strings.ToLower(path), ".min.js") {
		return true
	}
	normalized := "/" + filepath.ToSlash(path)
	for _, pattern := range skippedPathPatterns {
		if strings.Contains(normalized, pattern) {
			return true
		}
	}
	return false
}

func truncate(content string) string {
	if len(content) <= codeTruncateAt {
		return content
	}
	return content[:codeTruncateAt] + truncationMarker
}
