// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/stackscout/internal/httputil"
	"github.com/pdiddy/stackscout/pkg/types"
)

// perplexityAPIBase is the Perplexity chat-completions endpoint. Declared as
// a var so tests can substitute an httptest server.
var perplexityAPIBase = "https://api.perplexity.ai/chat/completions"

const defaultResearchMaxTokens = 2048

// perplexitySystemPrompt steers the search model toward concise, structured
// recommendations.
const perplexitySystemPrompt = "You are a technology research assistant. " +
	"Recommend concrete, current technologies with balanced pros and cons. Be concise."

// PerplexityBackend calls the Perplexity API as the search-augmented model.
// The underlying http.Client must support concurrent independent calls; the
// orchestrator issues many requests at once.
type PerplexityBackend struct {
	Client *http.Client
	Config types.ResearchConfig
}

type perplexityRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	Messages  []perplexityMessage `json:"messages"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends one research prompt and returns the first choice's content.
func (b *PerplexityBackend) Ask(ctx context.Context, prompt string) (string, error) {
	maxTokens := b.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultResearchMaxTokens
	}

	body, err := json.Marshal(perplexityRequest{
		Model:     b.Config.Model,
		MaxTokens: maxTokens,
		Messages: []perplexityMessage{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIBase, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.Config.APIKey)
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("Perplexity API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slice, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Perplexity API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(slice)))
	}

	var pr perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("parsing Perplexity response: %w", err)
	}
	if len(pr.Choices) == 0 {
		return "", fmt.Errorf("Perplexity response contained no choices")
	}
	return pr.Choices[0].Message.Content, nil
}
