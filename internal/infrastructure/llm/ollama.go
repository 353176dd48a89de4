// Package llm hosts the summarization and relevance backends.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// relevanceSchema constrains the relevance verdict to a structured reply.
var relevanceSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "is_prestigious": {"type": "boolean"},
    "reason": {"type": "string"}
  },
  "required": ["is_prestigious", "reason"]
}`)

// OllamaClient talks to a local Ollama instance over its generate API.
type OllamaClient struct {
	cfg    config.OllamaConfig
	http   *http.Client
	logger *slog.Logger
}

var _ ports.Summarizer = (*OllamaClient)(nil)
var _ ports.RelevanceEvaluator = (*OllamaClient)(nil)

func NewOllamaClient(cfg config.OllamaConfig, logger *slog.Logger) *OllamaClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}
}

type generateRequest struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	System string          `json:"system,omitempty"`
	Format json.RawMessage `json:"format,omitempty"`
	Stream bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize produces a short summary from whichever sections are available.
func (c *OllamaClient) Summarize(ctx context.Context, abstract, conclusion string) (string, error) {
	prompt := summaryPrompt(abstract, conclusion)

	reply, err := c.generate(ctx, generateRequest{
		Model:  c.cfg.SummariseModel,
		Prompt: prompt,
		System: c.cfg.SystemPrompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Evaluate judges whether the paper comes from a prestigious group.
func (c *OllamaClient) Evaluate(ctx context.Context, doc domain.Document) (domain.Selection, string, error) {
	reply, err := c.generate(ctx, generateRequest{
		Model:  c.cfg.RelevanceModel,
		Prompt: relevancePrompt(doc),
		Format: relevanceSchema,
	})
	if err != nil {
		return domain.SelectionNo, "", err
	}

	var verdict struct {
		IsPrestigious bool   `json:"is_prestigious"`
		Reason        string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(reply), &verdict); err != nil {
		return domain.SelectionNo, "", fmt.Errorf("parse verdict: %w", err)
	}

	if verdict.IsPrestigious {
		return domain.SelectionYes, verdict.Reason, nil
	}
	return domain.SelectionNo, verdict.Reason, nil
}

func (c *OllamaClient) generate(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: unexpected status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Response, nil
}

func summaryPrompt(abstract, conclusion string) string {
	var b strings.Builder
	b.WriteString("Summarize this research paper in 3-4 sentences for a technical reader. ")
	b.WriteString("Focus on the problem, the approach, and the main result.\n")
	if abstract != "" {
		b.WriteString("\nAbstract:\n")
		b.WriteString(abstract)
		b.WriteString("\n")
	}
	if conclusion != "" {
		b.WriteString("\nConclusion:\n")
		b.WriteString(conclusion)
		b.WriteString("\n")
	}
	return b.String()
}

func relevancePrompt(doc domain.Document) string {
	var b strings.Builder
	b.WriteString("Decide whether this paper comes from a prestigious research group ")
	b.WriteString("(a well-known university lab or major industry research team). ")
	b.WriteString("Answer as JSON with fields is_prestigious and reason.\n")
	fmt.Fprintf(&b, "\nTitle: %s\nAuthors: %s\n", doc.Title, doc.Authors)
	if doc.Affiliation != "" {
		fmt.Fprintf(&b, "Affiliation: %s\n", doc.Affiliation)
	}
	if doc.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", doc.Abstract)
	}
	return b.String()
}
