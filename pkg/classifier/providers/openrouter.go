package providers

import (
	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// NewOpenRouter returns a classifier.Provider backed by OpenRouter's
// OpenAI-compatible chat-completion API.
func NewOpenRouter(cfg config.LLMProviderConfig) classifier.Provider {
	return newChatCompletionProvider("openrouter", cfg)
}
