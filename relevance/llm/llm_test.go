// ABOUTME: This file tests the provider request shapes, fail-open behavior, and consensus voting
// ABOUTME: Backends are httptest servers; consensus votes come from in-memory stubs
package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat-collector/logger"
	"heat-collector/models"
)

func openAIHandler(t *testing.T, reply string, gotAuth *string, gotReq *chatRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		if gotReq != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotReq))
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: reply}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestOpenAIChecker_CheckRelevance(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(openAIHandler(t, "Yes", &gotAuth, &gotReq))
	defer server.Close()

	checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
	defer checker.Close()

	relevant := checker.CheckRelevance(context.Background(),
		"Heatwave grips Churu", "", "Rajasthan", "")

	assert.True(t, relevant)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 5, gotReq.MaxTokens)
	assert.Zero(t, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "State: Rajasthan")
	assert.Contains(t, gotReq.Messages[1].Content, "Title: Heatwave grips Churu")
	assert.Contains(t, gotReq.Messages[1].Content, "(no text)")
}

func TestOpenAIChecker_NoAnswer(t *testing.T) {
	server := httptest.NewServer(openAIHandler(t, "No", nil, nil))
	defer server.Close()

	checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
	defer checker.Close()

	assert.False(t, checker.CheckRelevance(context.Background(),
		"Stock market rallies", "", "Rajasthan", ""))
}

func TestCheckRelevance_FailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
	defer checker.Close()

	assert.True(t, checker.CheckRelevance(context.Background(),
		"Heatwave grips Churu", "", "Rajasthan", ""))
}

func TestGeminiChecker_RequestShape(t *testing.T) {
	var gotKey string
	var gotReq geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{Parts: []geminiPart{{Text: "Yes"}}}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	checker := NewGeminiCheckerWithBaseURL("gem-key", server.URL, logger.Discard())
	defer checker.Close()

	assert.True(t, checker.CheckRelevance(context.Background(),
		"Heatwave grips Churu", "", "Rajasthan", ""))
	assert.Equal(t, "gem-key", gotKey)
	require.Len(t, gotReq.SystemInstruction.Parts, 1)
	assert.Contains(t, gotReq.SystemInstruction.Parts[0].Text, "news classifier")
	assert.Equal(t, 5, gotReq.GenerationConfig.MaxOutputTokens)
}

func TestClaudeChecker_RequestShape(t *testing.T) {
	var gotKey, gotVersion string
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := anthropicResponse{}
		resp.Content = append(resp.Content, struct {
			Text string `json:"text"`
		}{Text: "Yes"})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	checker := NewClaudeCheckerWithBaseURL("cl-key", server.URL, logger.Discard())
	defer checker.Close()

	assert.True(t, checker.CheckRelevance(context.Background(),
		"Heatwave grips Churu", "", "Rajasthan", ""))
	assert.Equal(t, "cl-key", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, 5, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestExtractDistrict(t *testing.T) {
	districts := []string{"Jaipur", "Churu", "Sri Ganganagar"}

	tests := map[string]struct {
		reply string
		want  string
	}{
		"exact match":           {"Churu", "Churu"},
		"case insensitive":      {"churu", "Churu"},
		"quoted reply":          {`"Jaipur"`, "Jaipur"},
		"superstring answer":    {"Jaipur district", "Jaipur"},
		"none":                  {"None", ""},
		"unknown district":      {"Mumbai", ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(openAIHandler(t, tc.reply, nil, nil))
			defer server.Close()

			checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
			defer checker.Close()

			got := checker.ExtractDistrict(context.Background(),
				"Heatwave story", "body text", "Rajasthan", districts)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractDistrict_FailsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
	defer checker.Close()

	got := checker.ExtractDistrict(context.Background(),
		"Heatwave story", "", "Rajasthan", []string{"Jaipur"})
	assert.Empty(t, got)
}

type stubVerdict struct {
	verdict  bool
	district string
	closed   bool
}

func (s *stubVerdict) CheckRelevance(ctx context.Context, title, text, state, district string) bool {
	return s.verdict
}

func (s *stubVerdict) FilterRefs(ctx context.Context, refs []models.ArticleRef) []models.ArticleRef {
	return refs
}

func (s *stubVerdict) ExtractDistrict(ctx context.Context, title, text, state string, districts []string) string {
	return s.district
}

func (s *stubVerdict) Close() { s.closed = true }

func TestConsensus_MajorityVote(t *testing.T) {
	tests := map[string]struct {
		verdicts []bool
		want     bool
	}{
		"two of three yes": {[]bool{true, true, false}, true},
		"one of three yes": {[]bool{true, false, false}, false},
		"tie is not majority": {[]bool{true, false}, false},
		"unanimous":        {[]bool{true, true}, true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var checkers []Checker
			for _, verdict := range tc.verdicts {
				checkers = append(checkers, &stubVerdict{verdict: verdict})
			}
			consensus := NewConsensus(checkers, logger.Discard())
			got := consensus.CheckRelevance(context.Background(),
				"Heatwave grips Churu", "", "Rajasthan", "")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConsensus_DistrictDelegatesToFirst(t *testing.T) {
	first := &stubVerdict{district: "Jaipur"}
	second := &stubVerdict{district: "Churu"}
	consensus := NewConsensus([]Checker{first, second}, logger.Discard())

	got := consensus.ExtractDistrict(context.Background(),
		"Heatwave story", "", "Rajasthan", []string{"Jaipur", "Churu"})
	assert.Equal(t, "Jaipur", got)
}

func TestConsensus_CloseClosesAll(t *testing.T) {
	first := &stubVerdict{}
	second := &stubVerdict{}
	consensus := NewConsensus([]Checker{first, second}, logger.Discard())
	consensus.Close()
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestFilterRefs_PreservesOrder(t *testing.T) {
	replies := map[string]bool{
		"Heatwave grips Churu":       true,
		"Stock market rallies":       false,
		"Mercury soars in Jaisalmer": true,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		reply := "No"
		for title, yes := range replies {
			if yes && strings.Contains(req.Messages[1].Content, "Title: "+title) {
				reply = "Yes"
			}
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Content: reply}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	checker := NewOpenAICheckerWithBaseURL("test-key", server.URL, logger.Discard())
	defer checker.Close()

	var refs []models.ArticleRef
	for _, title := range []string{"Heatwave grips Churu", "Stock market rallies", "Mercury soars in Jaisalmer"} {
		ref, err := models.NewArticleRef(title, "https://example.com/"+title, "NDTV",
			time.Now(), "en", "Rajasthan", "heatwave")
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	kept := checker.FilterRefs(context.Background(), refs)
	require.Len(t, kept, 2)
	assert.Equal(t, "Heatwave grips Churu", kept[0].Title)
	assert.Equal(t, "Mercury soars in Jaisalmer", kept[1].Title)
}

func TestFromSpec(t *testing.T) {
	keys := APIKeys{OpenAI: "ok", Gemini: "gk", Anthropic: "ak"}

	tests := map[string]struct {
		spec    string
		keys    APIKeys
		wantNil bool
		wantConsensus bool
	}{
		"none disables":             {"none", keys, true, false},
		"blank disables":            {"", keys, true, false},
		"unknown provider":          {"llama", keys, true, false},
		"single openai":             {"openai", keys, false, false},
		"missing key":               {"openai", APIKeys{}, true, false},
		"consensus of two":          {"openai+claude", keys, false, true},
		"consensus falls back to one": {"openai+gemini", APIKeys{OpenAI: "ok"}, false, false},
		"consensus with no keys":    {"openai+gemini", APIKeys{}, true, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			checker := FromSpec(tc.spec, tc.keys, logger.Discard())
			if checker != nil {
				defer checker.Close()
			}
			if tc.wantNil {
				assert.Nil(t, checker)
				return
			}
			require.NotNil(t, checker)
			_, isConsensus := checker.(*Consensus)
			assert.Equal(t, tc.wantConsensus, isConsensus)
		})
	}
}
