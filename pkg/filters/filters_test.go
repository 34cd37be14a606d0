package filters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSignificant_GoFunctionViaAST(t *testing.T) {
	src := `package main

func Add(a, b int) int {
	return a + b
}
`
	assert.True(t, IsSignificant(src, "go"))
}

func TestIsSignificant_RejectsTrivialSnippet(t *testing.T) {
	assert.False(t, IsSignificant("x := 1\ny := 2\n", "go"))
}

func TestIsSignificant_RegexFallbackForUnknownLanguage(t *testing.T) {
	src := "import foo\nimport bar\nimport baz\n"
	assert.True(t, IsSignificant(src, "cobol"))
}

func TestFilterCode_SkipsVendoredPath(t *testing.T) {
	src := "func Foo() {}\nfunc Bar() {}\nfunc Baz() {}\n"
	result := FilterCode("/repo/vendor/pkg/file.go", src, "go")
	assert.False(t, result.Keep)
}

func TestFilterCode_SkipsTooFewLines(t *testing.T) {
	result := FilterCode("/repo/file.go", "x", "go")
	assert.False(t, result.Keep)
}

func TestFilterCode_KeepsSignificantCode(t *testing.T) {
	src := "func Foo() {\n  return\n}\n"
	result := FilterCode("/repo/file.go", src, "go")
	assert.True(t, result.Keep)
}

func TestFilterCode_TruncatesLongContent(t *testing.T) {
	src := "func Foo() {\n" + strings.Repeat("x", 3000) + "\n}\n"
	result := FilterCode("/repo/file.go", src, "go")
	assert.True(t, result.Keep)
	assert.Contains(t, result.Content, truncationMarker)
}

func TestStripNoise_RemovesMenusAndSeparators(t *testing.T) {
	content := "real content\n1. option one\n-----\nmore content"
	out := StripNoise(content)
	assert.NotContains(t, out, "option one")
	assert.Contains(t, out, "real content")
	assert.Contains(t, out, "more content")
}

func TestSmartTruncate_NoopUnderLimit(t *testing.T) {
	assert.Equal(t, "short", SmartTruncate("short"))
}

func TestIsDuplicateMessage(t *testing.T) {
	recent := []string{hashMessage("hello world")}
	assert.True(t, IsDuplicateMessage("hello world", recent))
	assert.False(t, IsDuplicateMessage("goodbye", recent))
}
