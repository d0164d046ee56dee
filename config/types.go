// ABOUTME: This file declares the configuration blocks for a collection run
// ABOUTME: Everything is fed from environment variables with sane defaults
package config

import "time"

// SourceNames lists the source identifiers accepted in SOURCES.
var SourceNames = []string{"google_news", "newsdata", "gnews"}

// Config aggregates all pipeline configuration blocks.
type Config struct {
	Collection CollectionConfig `json:"collection"`
	Dates      DateConfig       `json:"dates"`
	Extraction ExtractionConfig `json:"extraction"`
	LLM        LLMConfig        `json:"llm"`
	Output     OutputConfig     `json:"output"`
}

// CollectionConfig selects what to collect and how long the run may take.
type CollectionConfig struct {
	// Regions holds region slugs; empty means every state and UT.
	Regions []string `json:"regions" env:"REGIONS"`
	// Districts filters district tagging to the named district slugs;
	// empty means all districts of the selected regions.
	Districts []string `json:"districts" env:"DISTRICTS"`
	// Sources holds enabled source names; empty means all three.
	Sources []string `json:"sources" env:"SOURCES"`
	// TimeoutMinutes bounds the whole pipeline; zero disables the deadline.
	TimeoutMinutes int    `json:"timeout_minutes" env:"PIPELINE_TIMEOUT_MINUTES" default:"0"`
	NewsDataAPIKey string `json:"-" env:"NEWSDATA_API_KEY"`
	GNewsAPIKey    string `json:"-" env:"GNEWS_API_KEY"`
}

// DateConfig selects the publication window, either as a lookback from
// now or as an explicit inclusive IST date range.
type DateConfig struct {
	// LookbackHours is used when no explicit range is set.
	LookbackHours int `json:"lookback_hours" env:"LOOKBACK_HOURS" default:"24"`
	// StartDate and EndDate come from DATE_RANGE=YYYY-MM-DD:YYYY-MM-DD.
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// HasRange reports whether an explicit date range was configured.
func (d DateConfig) HasRange() bool {
	return !d.StartDate.IsZero() && !d.EndDate.IsZero()
}

// ExtractionConfig bounds the full-text extraction stage.
type ExtractionConfig struct {
	MaxArticles   int `json:"max_articles" env:"EXTRACTION_CAP" default:"5000"`
	MaxConcurrent int `json:"max_concurrent" env:"MAX_CONCURRENT_EXTRACTIONS" default:"10"`
}

// LLMConfig selects the optional relevance checker backends.
type LLMConfig struct {
	// Provider is none, a single provider name, or names joined with +.
	Provider     string `json:"provider" env:"LLM_PROVIDER" default:"none"`
	OpenAIKey    string `json:"-" env:"OPENAI_API_KEY"`
	GeminiKey    string `json:"-" env:"GEMINI_API_KEY"`
	AnthropicKey string `json:"-" env:"ANTHROPIC_API_KEY"`
}

// OutputConfig locates the output tree and the checkpoint file.
type OutputConfig struct {
	Dir            string `json:"dir" env:"OUTPUT_DIR" default:"output"`
	ByDistrict     bool   `json:"by_district" env:"OUTPUT_BY_DISTRICT" default:"false"`
	CheckpointPath string `json:"checkpoint_path" env:"CHECKPOINT_PATH" default:".heat-checkpoint.json"`
}
