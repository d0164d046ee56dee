// ABOUTME: This file implements the OpenAI GPT-4o-mini relevance backend
// ABOUTME: Chat completions endpoint, 5 output tokens, temperature zero
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const openAIBaseURL = "https://api.openai.com"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIChecker builds a checker backed by GPT-4o-mini.
func NewOpenAIChecker(apiKey string, logger *slog.Logger) Checker {
	return NewOpenAICheckerWithBaseURL(apiKey, openAIBaseURL, logger)
}

// NewOpenAICheckerWithBaseURL is NewOpenAIChecker with the endpoint made
// explicit, for tests.
func NewOpenAICheckerWithBaseURL(apiKey, baseURL string, logger *slog.Logger) Checker {
	client := newClient()
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	call := func(ctx context.Context, system, user string) (string, error) {
		body := chatRequest{
			Model: "gpt-4o-mini",
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			MaxTokens:   5,
			Temperature: 0,
		}
		data, err := postJSON(ctx, client, baseURL+"/v1/chat/completions", headers, body)
		if err != nil {
			return "", err
		}
		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("empty choices")
		}
		return parsed.Choices[0].Message.Content, nil
	}

	return newProvider("openai", 5, 100*time.Millisecond, call, client.CloseIdleConnections, logger)
}
