package providers

import (
	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// NewOpenAI returns a classifier.Provider backed by OpenAI's
// chat-completion API.
func NewOpenAI(cfg config.LLMProviderConfig) classifier.Provider {
	return newChatCompletionProvider("openai", cfg)
}
