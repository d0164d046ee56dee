// ABOUTME: This file builds a Checker from the configured provider expression
// ABOUTME: Supports none, a single provider, or a plus-joined consensus of providers
package llm

import (
	"log/slog"
	"strings"
)

// APIKeys carries the credentials for the supported backends. A blank key
// disables that backend.
type APIKeys struct {
	OpenAI    string
	Gemini    string
	Anthropic string
}

// FromSpec builds a checker from a provider expression: "none", a single
// provider name ("openai", "gemini", "claude"), or names joined with "+"
// for majority-vote consensus. It returns nil when checking is disabled
// or no configured provider has an API key; missing keys are logged, not
// fatal.
func FromSpec(spec string, keys APIKeys, logger *slog.Logger) Checker {
	provider := strings.ToLower(strings.TrimSpace(spec))
	if provider == "" || provider == "none" {
		logger.Info("llm relevance check disabled")
		return nil
	}

	if strings.Contains(provider, "+") {
		var names []string
		var checkers []Checker
		for _, name := range strings.Split(provider, "+") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			names = append(names, name)
			if checker := newSingleChecker(name, keys, logger); checker != nil {
				checkers = append(checkers, checker)
			}
		}

		if len(checkers) >= 2 {
			logger.Info("using multi-llm consensus",
				"providers", strings.Join(names, "+"), "checkers", len(checkers))
			return NewConsensus(checkers, logger)
		}
		logger.Warn("consensus needs 2+ checkers, falling back",
			"available", len(checkers))
		if len(checkers) == 1 {
			return checkers[0]
		}
		return nil
	}

	checker := newSingleChecker(provider, keys, logger)
	if checker == nil {
		logger.Warn("llm checker unavailable, skipping relevance check",
			"provider", provider)
		return nil
	}
	logger.Info("llm relevance check enabled", "provider", provider)
	return checker
}

func newSingleChecker(name string, keys APIKeys, logger *slog.Logger) Checker {
	switch name {
	case "openai":
		if keys.OpenAI == "" {
			logger.Warn("openai api key not set, skipping checker")
			return nil
		}
		return NewOpenAIChecker(keys.OpenAI, logger)
	case "gemini":
		if keys.Gemini == "" {
			logger.Warn("gemini api key not set, skipping checker")
			return nil
		}
		return NewGeminiChecker(keys.Gemini, logger)
	case "claude":
		if keys.Anthropic == "" {
			logger.Warn("anthropic api key not set, skipping checker")
			return nil
		}
		return NewClaudeChecker(keys.Anthropic, logger)
	default:
		logger.Warn("unknown llm provider, skipping", "provider", name)
		return nil
	}
}
