// ABOUTME: This file defines Query, QueryResult, and the checkpoint fingerprint
// ABOUTME: Fingerprints are stable across processes: sha256 prefix over the identity fields
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"heat-collector/models"
)

// Source hints name the backend a query is built for.
const (
	HintGoogleNews = "google_news"
	HintNewsData   = "newsdata"
	HintGNews      = "gnews"
)

// Query levels.
const (
	LevelState    = "state"
	LevelDistrict = "district"
)

// Per-backend maximum query-string lengths in characters.
const (
	GoogleNewsQueryLimit = 2000
	NewsDataQueryLimit   = 512
	GNewsQueryLimit      = 200
)

// Query is an immutable, API-ready search request. District-level queries
// carry the district names packed into the string so results can be tagged
// afterwards.
type Query struct {
	QueryString string
	Language    string
	RegionName  string
	RegionSlug  string
	Level       string
	Category    string
	SourceHint  string
	Districts   []string
}

// Fingerprint returns the 16-hex-char checkpoint key. It hashes only the
// identity fields, so equal queries collide across runs and processes.
func (q Query) Fingerprint() string {
	key := strings.Join([]string{q.SourceHint, q.RegionSlug, q.Language, q.Level, q.QueryString}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// QueryResult is the outcome of running one query through a scheduler.
// OK=true with a Reason means the query was skipped for a normal cause
// (open breaker, exhausted budget, unsupported language).
type QueryResult struct {
	Query    Query
	Source   string
	Articles []models.ArticleRef
	OK       bool
	Reason   string
}
