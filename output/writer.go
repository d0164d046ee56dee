// ABOUTME: This file writes per-region JSON and CSV article files plus run metadata
// ABOUTME: Indian scripts are preserved verbatim; regions are written concurrently
package output

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"heat-collector/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// csvHeader mirrors the csv tags on models.Article.
var csvHeader = []string{
	"title", "url", "source", "date", "language", "state", "district",
	"search_term", "full_text", "relevance_score",
}

// Writer lays out one collection run under root/<date-group>/. Each region
// gets its own directory with articles.json and articles.csv; when
// byDistrict is set, district-tagged articles additionally land in a
// subdirectory per district.
type Writer struct {
	root       string
	byDistrict bool
	logger     *slog.Logger
}

// NewWriter builds a writer rooted at the given output directory.
func NewWriter(root string, byDistrict bool, logger *slog.Logger) *Writer {
	return &Writer{root: root, byDistrict: byDistrict, logger: logger}
}

// regionDocument is the JSON shape of one region's articles.json.
type regionDocument struct {
	State        string           `json:"state"`
	Date         string           `json:"date"`
	ArticleCount int              `json:"article_count"`
	Articles     []models.Article `json:"articles"`
}

func slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.Join(strings.Fields(s), "-")
	return s
}

// WriteCollection groups articles by region and writes every region's
// files concurrently, then the run metadata. It returns the written file
// paths sorted for determinism.
func (w *Writer) WriteCollection(articles []models.Article, dateGroup string, meta CollectionMetadata) ([]string, error) {
	dir := filepath.Join(w.root, dateGroup)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	groups := make(map[string][]models.Article)
	for _, article := range articles {
		slug := slugify(article.State)
		groups[slug] = append(groups[slug], article)
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		paths []string
	)
	for slug, group := range groups {
		g.Go(func() error {
			written, err := w.writeRegion(dir, slug, dateGroup, group)
			if err != nil {
				return err
			}
			mu.Lock()
			paths = append(paths, written...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(dir, "_metadata.json")
	if err := writeJSON(metaPath, meta); err != nil {
		return nil, err
	}
	paths = append(paths, metaPath)
	sort.Strings(paths)

	w.logger.Info("collection written",
		"dir", dir,
		"regions", len(groups),
		"articles", len(articles),
		"run_id", meta.RunID)
	return paths, nil
}

func (w *Writer) writeRegion(dir, slug, dateGroup string, articles []models.Article) ([]string, error) {
	paths, err := writeArticlePair(filepath.Join(dir, slug), dateGroup, articles)
	if err != nil {
		return nil, err
	}
	if !w.byDistrict {
		return paths, nil
	}

	byDistrict := make(map[string][]models.Article)
	for _, article := range articles {
		if article.District != "" {
			byDistrict[article.District] = append(byDistrict[article.District], article)
		}
	}
	for district, group := range byDistrict {
		dest := filepath.Join(dir, slug, slugify(district))
		written, err := writeArticlePair(dest, dateGroup, group)
		if err != nil {
			return nil, err
		}
		paths = append(paths, written...)
	}
	return paths, nil
}

func writeArticlePair(dest, dateGroup string, articles []models.Article) ([]string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create region dir: %w", err)
	}

	jsonPath := filepath.Join(dest, "articles.json")
	doc := regionDocument{
		State:        articles[0].State,
		Date:         dateGroup,
		ArticleCount: len(articles),
		Articles:     articles,
	}
	if err := writeJSON(jsonPath, doc); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(dest, "articles.csv")
	if err := writeCSV(csvPath, articles); err != nil {
		return nil, err
	}
	return []string{jsonPath, csvPath}, nil
}

// writeJSON encodes with HTML escaping off so URLs and Indian-language
// text come out byte for byte.
func writeJSON(path string, payload any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}

func writeCSV(path string, articles []models.Article) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, a := range articles {
		record := []string{
			a.Title,
			a.URL,
			a.Source,
			a.Date.Format(time.RFC3339),
			a.Language,
			a.State,
			a.District,
			a.SearchTerm,
			a.FullText,
			strconv.FormatFloat(a.RelevanceScore, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}
