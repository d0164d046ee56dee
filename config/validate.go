// ABOUTME: This file validates a loaded configuration before the pipeline starts
// ABOUTME: Region and source names are checked against the reference data
package config

import (
	"fmt"

	"heat-collector/refdata"
)

func validateConfig(config *Config) error {
	if len(config.Collection.Sources) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	known := make(map[string]bool, len(SourceNames))
	for _, name := range SourceNames {
		known[name] = true
	}
	for _, name := range config.Collection.Sources {
		if !known[name] {
			return fmt.Errorf("unknown source %q", name)
		}
	}

	for _, slug := range config.Collection.Regions {
		if _, err := refdata.RegionBySlug(slug); err != nil {
			return fmt.Errorf("unknown region %q", slug)
		}
	}

	if config.Collection.TimeoutMinutes < 0 {
		return fmt.Errorf("pipeline timeout must be non-negative: %d", config.Collection.TimeoutMinutes)
	}

	if config.Dates.HasRange() {
		if config.Dates.EndDate.Before(config.Dates.StartDate) {
			return fmt.Errorf("date range end precedes start")
		}
	} else if config.Dates.LookbackHours <= 0 {
		return fmt.Errorf("lookback hours must be positive: %d", config.Dates.LookbackHours)
	}

	if config.Extraction.MaxArticles <= 0 {
		return fmt.Errorf("extraction cap must be positive: %d", config.Extraction.MaxArticles)
	}
	if config.Extraction.MaxConcurrent <= 0 {
		return fmt.Errorf("extraction concurrency must be positive: %d", config.Extraction.MaxConcurrent)
	}

	if config.Output.Dir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if config.Output.CheckpointPath == "" {
		return fmt.Errorf("checkpoint path cannot be empty")
	}
	return nil
}
