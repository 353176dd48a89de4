package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/ports"
)

// AnthropicClient summarizes through the hosted Anthropic API.
type AnthropicClient struct {
	cfg    config.AnthropicConfig
	system string
}

var _ ports.Summarizer = (*AnthropicClient)(nil)

func NewAnthropicClient(cfg config.AnthropicConfig, systemPrompt string) *AnthropicClient {
	return &AnthropicClient{cfg: cfg, system: systemPrompt}
}

// Summarize sends the extracted sections and returns the reply text.
func (c *AnthropicClient) Summarize(_ context.Context, abstract, conclusion string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("anthropic: api key not configured")
	}

	settings := types.RequestSettings{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	response, err := anthropic.PromptWithSettings(c.system, summaryPrompt(abstract, conclusion), "", c.cfg.APIKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return strings.TrimSpace(response.Content[0].Text), nil
}
