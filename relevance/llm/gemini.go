// ABOUTME: This file implements the Gemini Flash relevance backend
// ABOUTME: Gated to one request every four seconds to stay inside the free tier
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"system_instruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiChecker builds a checker backed by Gemini Flash. The free tier
// allows 15 requests per minute, hence the single in-flight request and
// the long interval.
func NewGeminiChecker(apiKey string, logger *slog.Logger) Checker {
	return NewGeminiCheckerWithBaseURL(apiKey, geminiBaseURL, logger)
}

// NewGeminiCheckerWithBaseURL is NewGeminiChecker with the endpoint made
// explicit, for tests.
func NewGeminiCheckerWithBaseURL(apiKey, baseURL string, logger *slog.Logger) Checker {
	client := newClient()
	endpoint := baseURL + "/v1beta/models/gemini-2.0-flash:generateContent?key=" + url.QueryEscape(apiKey)

	call := func(ctx context.Context, system, user string) (string, error) {
		var body geminiRequest
		body.SystemInstruction = geminiContent{Parts: []geminiPart{{Text: system}}}
		body.Contents = []geminiContent{{Parts: []geminiPart{{Text: user}}}}
		body.GenerationConfig.MaxOutputTokens = 5
		body.GenerationConfig.Temperature = 0

		data, err := postJSON(ctx, client, endpoint, nil, body)
		if err != nil {
			return "", err
		}
		var parsed geminiResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("empty candidates")
		}
		return parsed.Candidates[0].Content.Parts[0].Text, nil
	}

	return newProvider("gemini", 1, 4*time.Second, call, client.CloseIdleConnections, logger)
}
