package filters

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// significantNodeTypes are the tree-sitter grammar node kinds that mark a
// chunk of source as "significant" — worth remembering as a code pattern
// rather than a throwaway snippet.
var significantNodeTypes = map[string]bool{
	"function_declaration":  true,
	"function_definition":   true,
	"method_declaration":    true,
	"class_declaration":     true,
	"class_definition":      true,
	"type_declaration":      true,
	"interface_declaration": true,
	"decorated_definition":  true,
}

var languageParsers = map[string]*sitter.Language{
	"go":         golang.GetLanguage(),
	"python":     python.GetLanguage(),
	"javascript": javascript.GetLanguage(),
	"typescript": typescript.GetLanguage(),
}

// importLineRe and decoratorLineRe ground the regex fallback used for
// languages without a bundled grammar, or when tree-sitter fails to parse.
var (
	importLineRe    = regexp.MustCompile(`^\s*(import|from|use|require|#include)\b`)
	decoratorLineRe = regexp.MustCompile(`^\s*[@#]\[?\w`)
)

// IsSignificant reports whether content is worth keeping as a code-pattern
// memory for the given language. Recognized languages are parsed with
// tree-sitter and checked for a function/class/type definition node;
// unrecognized languages, or content tree-sitter fails to parse cleanly,
// fall back to a cheap line-heuristic (consecutive import-like lines, or a
// decorator/annotation line) rather than being rejected outright.
func IsSignificant(content, language string) bool {
	lang, ok := languageParsers[strings.ToLower(language)]
	if ok {
		if sig, parsed := significantViaAST(content, lang); parsed {
			return sig
		}
	}
	return significantViaRegex(content)
}

func significantViaAST(content string, lang *sitter.Language) (significant bool, parsed bool) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil || tree == nil {
		return false, false
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		return false, false
	}

	return walkForSignificantNode(root), true
}

func walkForSignificantNode(n *sitter.Node) bool {
	if significantNodeTypes[n.Type()] {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if walkForSignificantNode(n.Child(i)) {
			return true
		}
	}
	return false
}

func significantViaRegex(content string) bool {
	lines := strings.Split(content, "\n")
	consecutiveImports := 0
	for _, line := range lines {
		switch {
		case importLineRe.MatchString(line):
			consecutiveImports++
			if consecutiveImports >= 3 {
				return true
			}
		case decoratorLineRe.MatchString(line):
			return true
		default:
			consecutiveImports = 0
		}
	}
	return false
}
