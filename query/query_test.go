// ABOUTME: This file tests Query fingerprint stability and sensitivity
// ABOUTME: Fingerprints must be equal iff every identity field is equal
package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseQuery() Query {
	return Query{
		QueryString: "(heatwave) Rajasthan",
		Language:    "en",
		RegionName:  "Rajasthan",
		RegionSlug:  "rajasthan",
		Level:       LevelState,
		Category:    "weather",
		SourceHint:  HintGoogleNews,
	}
}

func TestQuery_FingerprintStable(t *testing.T) {
	q := baseQuery()
	first := q.Fingerprint()

	assert.Equal(t, first, baseQuery().Fingerprint())
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), first)
}

func TestQuery_FingerprintSensitivity(t *testing.T) {
	base := baseQuery().Fingerprint()

	mutations := map[string]func(q Query) Query{
		"source hint":  func(q Query) Query { q.SourceHint = HintNewsData; return q },
		"region slug":  func(q Query) Query { q.RegionSlug = "gujarat"; return q },
		"language":     func(q Query) Query { q.Language = "hi"; return q },
		"level":        func(q Query) Query { q.Level = LevelDistrict; return q },
		"query string": func(q Query) Query { q.QueryString = "(loo) Rajasthan"; return q },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, mutate(baseQuery()).Fingerprint())
		})
	}

	// Non-identity fields do not participate.
	q := baseQuery()
	q.Category = "health"
	q.Districts = []string{"Jaipur"}
	assert.Equal(t, base, q.Fingerprint())
}
