// ABOUTME: This file builds the configuration from defaults plus environment overrides
// ABOUTME: Bad values fail loading instead of being silently replaced
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"heat-collector/models"
)

const dateLayout = "2006-01-02"

// LoadConfig builds the configuration from defaults and overrides provided
// via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadCollectionConfig(&config.Collection); err != nil {
		return nil, fmt.Errorf("failed to load collection config: %w", err)
	}
	if err := loadDateConfig(&config.Dates); err != nil {
		return nil, fmt.Errorf("failed to load date config: %w", err)
	}
	if err := loadExtractionConfig(&config.Extraction); err != nil {
		return nil, fmt.Errorf("failed to load extraction config: %w", err)
	}
	loadLLMConfig(&config.LLM)
	if err := loadOutputConfig(&config.Output); err != nil {
		return nil, fmt.Errorf("failed to load output config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Sources:        append([]string(nil), SourceNames...),
			TimeoutMinutes: 0,
		},
		Dates: DateConfig{
			LookbackHours: 24,
		},
		Extraction: ExtractionConfig{
			MaxArticles:   5000,
			MaxConcurrent: 10,
		},
		LLM: LLMConfig{
			Provider: "none",
		},
		Output: OutputConfig{
			Dir:            "output",
			CheckpointPath: ".heat-checkpoint.json",
		},
	}
}

func loadCollectionConfig(cfg *CollectionConfig) error {
	var err error

	cfg.Regions = parseListEnv("REGIONS", cfg.Regions)
	cfg.Districts = parseListEnv("DISTRICTS", cfg.Districts)
	cfg.Sources = parseListEnv("SOURCES", cfg.Sources)

	if cfg.TimeoutMinutes, err = parseIntEnv("PIPELINE_TIMEOUT_MINUTES", cfg.TimeoutMinutes); err != nil {
		return err
	}

	cfg.NewsDataAPIKey = strings.TrimSpace(os.Getenv("NEWSDATA_API_KEY"))
	cfg.GNewsAPIKey = strings.TrimSpace(os.Getenv("GNEWS_API_KEY"))
	return nil
}

func loadDateConfig(cfg *DateConfig) error {
	var err error

	if cfg.LookbackHours, err = parseIntEnv("LOOKBACK_HOURS", cfg.LookbackHours); err != nil {
		return err
	}

	rangeValue := strings.TrimSpace(os.Getenv("DATE_RANGE"))
	if rangeValue == "" {
		return nil
	}
	parts := strings.SplitN(rangeValue, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("DATE_RANGE must be YYYY-MM-DD:YYYY-MM-DD, got %q", rangeValue)
	}
	if cfg.StartDate, err = time.ParseInLocation(dateLayout, parts[0], models.IST); err != nil {
		return fmt.Errorf("DATE_RANGE start: %w", err)
	}
	if cfg.EndDate, err = time.ParseInLocation(dateLayout, parts[1], models.IST); err != nil {
		return fmt.Errorf("DATE_RANGE end: %w", err)
	}
	return nil
}

func loadExtractionConfig(cfg *ExtractionConfig) error {
	var err error

	if cfg.MaxArticles, err = parseIntEnv("EXTRACTION_CAP", cfg.MaxArticles); err != nil {
		return err
	}
	if cfg.MaxConcurrent, err = parseIntEnv("MAX_CONCURRENT_EXTRACTIONS", cfg.MaxConcurrent); err != nil {
		return err
	}
	return nil
}

func loadLLMConfig(cfg *LLMConfig) {
	if value := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); value != "" {
		cfg.Provider = strings.ToLower(value)
	}
	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.GeminiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.AnthropicKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
}

func loadOutputConfig(cfg *OutputConfig) error {
	var err error

	if value := strings.TrimSpace(os.Getenv("OUTPUT_DIR")); value != "" {
		cfg.Dir = value
	}
	if value := strings.TrimSpace(os.Getenv("CHECKPOINT_PATH")); value != "" {
		cfg.CheckpointPath = value
	}
	if cfg.ByDistrict, err = parseBoolEnv("OUTPUT_BY_DISTRICT", cfg.ByDistrict); err != nil {
		return err
	}
	return nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return parsed, nil
}

// parseListEnv splits a comma-separated value, trimming blanks. An unset
// variable keeps the fallback; an explicit value replaces it entirely.
func parseListEnv(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
