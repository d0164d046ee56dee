// ABOUTME: This file implements the Claude Haiku relevance backend
// ABOUTME: Messages endpoint with the pinned API version header
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const anthropicBaseURL = "https://api.anthropic.com"

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// NewClaudeChecker builds a checker backed by Claude Haiku.
func NewClaudeChecker(apiKey string, logger *slog.Logger) Checker {
	return NewClaudeCheckerWithBaseURL(apiKey, anthropicBaseURL, logger)
}

// NewClaudeCheckerWithBaseURL is NewClaudeChecker with the endpoint made
// explicit, for tests.
func NewClaudeCheckerWithBaseURL(apiKey, baseURL string, logger *slog.Logger) Checker {
	client := newClient()
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": "2023-06-01",
	}

	call := func(ctx context.Context, system, user string) (string, error) {
		body := anthropicRequest{
			Model:       "claude-haiku-4-5-20251001",
			MaxTokens:   5,
			Temperature: 0,
			System:      system,
			Messages:    []chatMessage{{Role: "user", Content: user}},
		}
		data, err := postJSON(ctx, client, baseURL+"/v1/messages", headers, body)
		if err != nil {
			return "", err
		}
		var parsed anthropicResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(parsed.Content) == 0 {
			return "", fmt.Errorf("empty content")
		}
		return parsed.Content[0].Text, nil
	}

	return newProvider("claude", 5, 100*time.Millisecond, call, client.CloseIdleConnections, logger)
}
