package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// claudeProvider implements classifier.Provider against Anthropic's Messages
// API via the official SDK — the same SDK §4.J's async LLM client uses for
// conversation capture.
type claudeProvider struct {
	client anthropic.Client
	model  string
}

// NewClaude returns a classifier.Provider backed by Anthropic's Messages API.
func NewClaude(cfg config.LLMProviderConfig) classifier.Provider {
	apiKey := apiKeyFromEnv(cfg.APIKeyEnv)
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &claudeProvider{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) IsAvailable(ctx context.Context) bool {
	// The Messages API has no lightweight health endpoint; availability is
	// established by a successful Classify call, so this always reports
	// true and lets circuit-breaker failures do the gating.
	return true
}

func (p *claudeProvider) Classify(ctx context.Context, content string, collection config.Collection, currentType config.MemoryType) (classifier.Result, error) {
	prompt := BuildPrompt(content, collection, currentType)

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 300,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return classifier.Result{}, fmt.Errorf("claude: classify request failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return classifier.Result{}, fmt.Errorf("claude: empty response content")
	}

	var text string
	for _, block := range msg.Content {
		if tb := block.AsText(); tb.Text != "" {
			text += tb.Text
		}
	}

	typ, confidence, reasoning, tags, err := ParseResponse(text)
	if err != nil {
		return classifier.Result{}, err
	}
	return classifier.Result{
		Type: typ, Confidence: confidence, Reasoning: reasoning, Tags: tags,
		InputTokens: int(msg.Usage.InputTokens), OutputTokens: int(msg.Usage.OutputTokens),
		ModelName: p.model,
	}, nil
}
