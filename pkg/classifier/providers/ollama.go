package providers

import (
	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// NewOllama returns a classifier.Provider backed by a local Ollama
// instance's OpenAI-compatible chat-completion endpoint. It incurs no
// network egress or API cost; the default provider order tries it last.
func NewOllama(cfg config.LLMProviderConfig) classifier.Provider {
	return newChatCompletionProvider("ollama", cfg)
}
