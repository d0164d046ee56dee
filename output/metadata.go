// ABOUTME: This file defines the collection run metadata written next to the article files
// ABOUTME: Every run gets a fresh UUID so output batches can be traced back to a run
package output

import (
	"time"

	"github.com/google/uuid"

	"heat-collector/models"
)

// CollectionMetadata describes a single collection run. It is written as
// _metadata.json next to the per-region article files for auditing.
type CollectionMetadata struct {
	RunID               string         `json:"run_id"`
	CollectionTimestamp time.Time      `json:"collection_timestamp"`
	SourcesQueried      []string       `json:"sources_queried"`
	QueryTermsUsed      []string       `json:"query_terms_used"`
	Counts              map[string]int `json:"counts"`
}

// NewCollectionMetadata stamps a run with a fresh ID and the current IST
// time. Counts carries per-stage article tallies keyed by stage name.
func NewCollectionMetadata(sources, terms []string, counts map[string]int) CollectionMetadata {
	return CollectionMetadata{
		RunID:               uuid.NewString(),
		CollectionTimestamp: time.Now().In(models.IST),
		SourcesQueried:      sources,
		QueryTermsUsed:      terms,
		Counts:              counts,
	}
}
