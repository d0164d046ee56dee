// ABOUTME: This file converts article HTML into plain text paragraphs
// ABOUTME: Readability first for precision, goquery paragraph walk for recall, strict strip last
package extraction

import (
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// minTextLength discards extractions that are too short to be an article
// body (navigation crumbs, cookie banners, bare titles).
const minTextLength = 100

// ExtractText returns the main article text of an HTML document, or ""
// when nothing usable could be extracted. Precision-oriented readability
// runs first; when it comes up short the recall-oriented paragraph walk
// takes over.
func ExtractText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "<") {
		return discardShort(normalizeWhitespace(trimmed))
	}

	if text := readableText(trimmed); text != "" {
		return text
	}
	return discardShort(extractParagraphs(trimmed))
}

// readableText runs go-readability over the document and renders plain
// text. Returns "" when the result is below the length floor.
func readableText(html string) string {
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return ""
	}
	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return discardShort(strings.TrimSpace(buf.String()))
}

// extractParagraphs walks block elements in document order buckets:
// headers, paragraphs, code blocks, list items. Paragraphs are joined
// with blank lines.
func extractParagraphs(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeWhitespace(bluemonday.StrictPolicy().Sanitize(html))
	}

	doc.Find("head, script, style, noscript, nav, header, footer, aside").Remove()

	var paragraphs []string
	collect := func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(collect)
	doc.Find("p").Each(collect)
	doc.Find("pre code, pre").Each(collect)
	doc.Find("li").Each(collect)

	if len(paragraphs) == 0 {
		return normalizeWhitespace(bluemonday.StrictPolicy().Sanitize(html))
	}
	return strings.Join(paragraphs, "\n\n")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func discardShort(text string) string {
	if len([]rune(text)) < minTextLength {
		return ""
	}
	return text
}
