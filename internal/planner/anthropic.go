// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

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

// anthropicAPIBase is the Anthropic Messages endpoint. Declared as a var so
// tests can substitute an httptest server.
var anthropicAPIBase = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

const defaultPlannerMaxTokens = 4096

// AnthropicBackend calls the Anthropic Messages API as the reasoning model.
type AnthropicBackend struct {
	Client *http.Client
	Config types.PlannerConfig
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one user message and returns the concatenated text blocks
// of the response.
func (b *AnthropicBackend) Complete(ctx context.Context, prompt string) (string, error) {
	maxTokens := b.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultPlannerMaxTokens
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     b.Config.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIBase, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.Config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("Anthropic API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the error message.
		slice, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Anthropic API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(slice)))
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("parsing Anthropic response: %w", err)
	}
	if ar.Error != nil {
		return "", fmt.Errorf("Anthropic API error: %s: %s", ar.Error.Type, ar.Error.Message)
	}

	var text strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Anthropic response contained no text blocks")
	}
	return text.String(), nil
}
