// ABOUTME: This file tests query-string packing under per-backend length limits
// ABOUTME: Covers quoting, greedy packing, truncation, and district batching
package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTerm(t *testing.T) {
	assert.Equal(t, "heatwave", quoteTerm("heatwave"))
	assert.Equal(t, `"heat wave"`, quoteTerm("heat wave"))
}

func TestBuildTermQuery(t *testing.T) {
	tests := map[string]struct {
		terms  []string
		region string
		limit  int
		want   string
	}{
		"all terms fit": {
			terms:  []string{"heatwave", "heat stroke", "loo"},
			region: "Rajasthan",
			limit:  200,
			want:   `(heatwave OR "heat stroke" OR loo) Rajasthan`,
		},
		"packing stops at limit": {
			terms:  []string{"heatwave", "sunstroke", "dehydration"},
			region: "Goa",
			limit:  30, // budget 24: "heatwave" + " OR " + "sunstroke" = 21 fits, next does not
			want:   "(heatwave OR sunstroke) Goa",
		},
		"first term truncated when oversized": {
			terms:  []string{"extraordinarily-long-term"},
			region: "Goa",
			limit:  13, // budget 7
			want:   "(extraor) Goa",
		},
		"no terms": {
			terms:  nil,
			region: "Goa",
			limit:  100,
			want:   "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := BuildTermQuery(tc.terms, tc.region, tc.limit)
			assert.Equal(t, tc.want, got)
			if got != "" {
				assert.LessOrEqual(t, len([]rune(got)), tc.limit)
			}
		})
	}
}

func TestBuildTermQuery_CountsRunesNotBytes(t *testing.T) {
	// Devanagari terms: each code point is multiple UTF-8 bytes.
	got := BuildTermQuery([]string{"लू", "गर्मी की लहर"}, "राजस्थान", 40)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len([]rune(got)), 40)
}

func TestBuildDistrictBatches(t *testing.T) {
	districts := []string{"Jaipur", "Jodhpur", "Sri Ganganagar", "Kota"}

	batches := BuildDistrictBatches("heatwave", districts, 60)
	require.NotEmpty(t, batches)

	var covered []string
	for _, batch := range batches {
		assert.True(t, strings.HasPrefix(batch.QueryString, "heatwave ("))
		assert.True(t, strings.HasSuffix(batch.QueryString, ")"))
		assert.LessOrEqual(t, len([]rune(batch.QueryString)), 60)
		covered = append(covered, batch.Districts...)
		for _, d := range batch.Districts {
			assert.Contains(t, batch.QueryString, `"`+d+`"`)
		}
	}
	assert.ElementsMatch(t, districts, covered)
}

func TestBuildDistrictBatches_SingleBatchWhenAllFit(t *testing.T) {
	batches := BuildDistrictBatches("heatwave", []string{"Jaipur", "Kota"}, 200)
	require.Len(t, batches, 1)
	assert.Equal(t, `heatwave ("Jaipur" OR "Kota")`, batches[0].QueryString)
	assert.Equal(t, []string{"Jaipur", "Kota"}, batches[0].Districts)
}

func TestBuildDistrictBatches_ImpossibleLimit(t *testing.T) {
	assert.Empty(t, BuildDistrictBatches("heatwave", []string{"Jaipur"}, 5))
}
