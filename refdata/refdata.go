// ABOUTME: This file loads the embedded India geography, heat term, and exclusion datasets
// ABOUTME: Data is parsed and validated once; accessors return stable read-only views
package refdata

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"heat-collector/models"
)

//go:embed india_geo.json heat_terms.json exclusion_patterns.json
var dataFS embed.FS

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// QueryCategories are the term categories used to build search queries.
// The remaining categories only contribute to relevance scoring.
var QueryCategories = []string{"weather", "health", "temperature"}

// Categories is the full ordered category set every language must cover.
var Categories = []string{
	"weather", "health", "temperature", "water", "power",
	"agriculture", "labor", "governance", "urban_infra", "education",
}

// District is a named subdivision of a region.
type District struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Region is a state or union territory. Languages are ordered with the
// primary regional language first; English is always present.
type Region struct {
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Type      string     `json:"type"`
	Languages []string   `json:"languages"`
	Districts []District `json:"districts"`
}

// IsUnionTerritory reports whether the region is a UT rather than a state.
func (r Region) IsUnionTerritory() bool {
	return r.Type == "ut"
}

// DistrictNames returns the district display names in file order.
func (r Region) DistrictNames() []string {
	names := make([]string, len(r.Districts))
	for i, d := range r.Districts {
		names[i] = d.Name
	}
	return names
}

// QueryLanguages returns the languages searches run in for this region:
// the primary regional language plus English. For English-primary regions
// that collapses to just English.
func (r Region) QueryLanguages() []string {
	primary := r.Languages[0]
	if primary == "en" {
		return []string{"en"}
	}
	return []string{primary, "en"}
}

type geoFile struct {
	States []Region `json:"states"`
}

type exclusionFile struct {
	Patterns []string `json:"patterns"`
}

var (
	loadOnce sync.Once
	loadErr  error

	regions       []Region
	regionsBySlug map[string]*Region
	terms         map[string]map[string][]string
	exclusions    []*regexp.Regexp
)

func load() error {
	loadOnce.Do(func() {
		loadErr = loadAll()
	})
	return loadErr
}

func loadAll() error {
	geoRaw, err := dataFS.ReadFile("india_geo.json")
	if err != nil {
		return fmt.Errorf("read india_geo.json: %w", err)
	}
	var geo geoFile
	if err := json.Unmarshal(geoRaw, &geo); err != nil {
		return fmt.Errorf("parse india_geo.json: %w", err)
	}

	termsRaw, err := dataFS.ReadFile("heat_terms.json")
	if err != nil {
		return fmt.Errorf("read heat_terms.json: %w", err)
	}
	if err := json.Unmarshal(termsRaw, &terms); err != nil {
		return fmt.Errorf("parse heat_terms.json: %w", err)
	}

	exclRaw, err := dataFS.ReadFile("exclusion_patterns.json")
	if err != nil {
		return fmt.Errorf("read exclusion_patterns.json: %w", err)
	}
	var excl exclusionFile
	if err := json.Unmarshal(exclRaw, &excl); err != nil {
		return fmt.Errorf("parse exclusion_patterns.json: %w", err)
	}

	regions = geo.States
	regionsBySlug = make(map[string]*Region, len(regions))
	for i := range regions {
		r := &regions[i]
		if _, dup := regionsBySlug[r.Slug]; dup {
			return fmt.Errorf("region %q: duplicate slug", r.Slug)
		}
		regionsBySlug[r.Slug] = r
	}

	exclusions = make([]*regexp.Regexp, 0, len(excl.Patterns))
	for _, p := range excl.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("exclusion pattern %q: %w", p, err)
		}
		exclusions = append(exclusions, re)
	}

	return validate()
}

func validate() error {
	if len(regions) == 0 {
		return fmt.Errorf("geography: no regions")
	}
	for _, r := range regions {
		if r.Name == "" || r.Slug == "" {
			return fmt.Errorf("geography: region with empty name or slug")
		}
		if r.Type != "state" && r.Type != "ut" {
			return fmt.Errorf("region %q: invalid type %q", r.Slug, r.Type)
		}
		if len(r.Languages) == 0 {
			return fmt.Errorf("region %q: no languages", r.Slug)
		}
		if len(r.Districts) == 0 {
			return fmt.Errorf("region %q: no districts", r.Slug)
		}
		hasEnglish := false
		for _, lang := range r.Languages {
			if !models.SupportedLanguages[lang] {
				return fmt.Errorf("region %q: unsupported language %q", r.Slug, lang)
			}
			if lang == "en" {
				hasEnglish = true
			}
		}
		if !hasEnglish {
			return fmt.Errorf("region %q: english missing from languages", r.Slug)
		}
		seen := make(map[string]bool, len(r.Districts))
		for _, d := range r.Districts {
			if d.Name == "" || d.Slug == "" {
				return fmt.Errorf("region %q: district with empty name or slug", r.Slug)
			}
			if seen[d.Slug] {
				return fmt.Errorf("region %q: duplicate district slug %q", r.Slug, d.Slug)
			}
			seen[d.Slug] = true
		}
	}

	for lang := range models.SupportedLanguages {
		byCategory, ok := terms[lang]
		if !ok {
			return fmt.Errorf("heat terms: language %q missing", lang)
		}
		for _, cat := range Categories {
			if len(byCategory[cat]) == 0 {
				return fmt.Errorf("heat terms: language %q has no terms for category %q", lang, cat)
			}
		}
	}
	for lang := range terms {
		if !models.SupportedLanguages[lang] {
			return fmt.Errorf("heat terms: unexpected language %q", lang)
		}
	}

	if len(exclusions) == 0 {
		return fmt.Errorf("exclusion patterns: empty set")
	}
	return nil
}

// AllRegions returns every state and union territory in file order.
func AllRegions() ([]Region, error) {
	if err := load(); err != nil {
		return nil, err
	}
	out := make([]Region, len(regions))
	copy(out, regions)
	return out, nil
}

// RegionBySlug looks up a region by its slug.
func RegionBySlug(slug string) (Region, error) {
	if err := load(); err != nil {
		return Region{}, err
	}
	r, ok := regionsBySlug[slug]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q", slug)
	}
	return *r, nil
}

// Terms returns the heat terms for one language and category.
func Terms(language, category string) ([]string, error) {
	if err := load(); err != nil {
		return nil, err
	}
	byCategory, ok := terms[language]
	if !ok {
		return nil, fmt.Errorf("no terms for language %q", language)
	}
	list, ok := byCategory[category]
	if !ok {
		return nil, fmt.Errorf("no terms for language %q category %q", language, category)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// AllTerms returns every term for a language across all categories,
// deduplicated and sorted for stable iteration.
func AllTerms(language string) ([]string, error) {
	if err := load(); err != nil {
		return nil, err
	}
	byCategory, ok := terms[language]
	if !ok {
		return nil, fmt.Errorf("no terms for language %q", language)
	}
	set := make(map[string]bool)
	for _, list := range byCategory {
		for _, term := range list {
			set[term] = true
		}
	}
	out := make([]string, 0, len(set))
	for term := range set {
		out = append(out, term)
	}
	sort.Strings(out)
	return out, nil
}

// TermCategories returns, per term, the set of categories containing it
// for the given language. Used by relevance scoring.
func TermCategories(language string) (map[string][]string, error) {
	if err := load(); err != nil {
		return nil, err
	}
	byCategory, ok := terms[language]
	if !ok {
		return nil, fmt.Errorf("no terms for language %q", language)
	}
	out := make(map[string][]string)
	for _, cat := range Categories {
		for _, term := range byCategory[cat] {
			out[term] = append(out[term], cat)
		}
	}
	return out, nil
}

// ExclusionPatterns returns the compiled case-insensitive exclusion regexes.
func ExclusionPatterns() ([]*regexp.Regexp, error) {
	if err := load(); err != nil {
		return nil, err
	}
	out := make([]*regexp.Regexp, len(exclusions))
	copy(out, exclusions)
	return out, nil
}
