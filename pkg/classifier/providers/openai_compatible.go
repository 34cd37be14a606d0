package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// chatCompletionProvider implements classifier.Provider against any
// OpenAI-compatible chat-completion endpoint — openrouter, openai, and
// ollama all speak this wire shape, differing only in base URL, auth
// header, and default model.
type chatCompletionProvider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func newChatCompletionProvider(name string, cfg config.LLMProviderConfig) *chatCompletionProvider {
	return &chatCompletionProvider{
		name:    name,
		baseURL: cfg.BaseURL,
		apiKey:  apiKeyFromEnv(cfg.APIKeyEnv),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func apiKeyFromEnv(envVar string) string {
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

func (p *chatCompletionProvider) Name() string { return p.name }

func (p *chatCompletionProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	p.authenticate(req)
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

type chatCompletionRequest struct {
	Model     string               `json:"model"`
	Messages  []map[string]string  `json:"messages"`
	MaxTokens int                  `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Classify sends content to the chat-completion endpoint and parses the
// model's reply via the shared ParseResponse tolerant JSON extractor.
func (p *chatCompletionProvider) Classify(ctx context.Context, content string, collection config.Collection, currentType config.MemoryType) (classifier.Result, error) {
	prompt := BuildPrompt(content, collection, currentType)
	body, err := json.Marshal(chatCompletionRequest{
		Model:     p.model,
		Messages:  []map[string]string{{"role": "user", "content": prompt}},
		MaxTokens: 300,
	})
	if err != nil {
		return classifier.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return classifier.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authenticate(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("%s: request failed: %w", p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return classifier.Result{}, fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return classifier.Result{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if len(parsed.Choices) == 0 {
		return classifier.Result{}, fmt.Errorf("%s: empty choices in response", p.name)
	}

	typ, confidence, reasoning, tags, err := ParseResponse(parsed.Choices[0].Message.Content)
	if err != nil {
		return classifier.Result{}, err
	}
	return classifier.Result{
		Type: typ, Confidence: confidence, Reasoning: reasoning, Tags: tags,
		InputTokens: parsed.Usage.PromptTokens, OutputTokens: parsed.Usage.CompletionTokens,
		ModelName: p.model,
	}, nil
}

func (p *chatCompletionProvider) authenticate(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}
