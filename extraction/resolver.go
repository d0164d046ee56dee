// ABOUTME: This file resolves Google News redirect URLs to real article URLs
// ABOUTME: Tries HTTP redirects first, then the batchexecute decoding endpoint
package extraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Resolver turns aggregator redirect URLs into publisher URLs. Non
// aggregator URLs pass through unchanged, and every failure degrades to
// the original URL; Resolve never fails.
type Resolver struct {
	baseURL string
	host    string
	client  *http.Client
	logger  *slog.Logger
}

func NewResolver(client *http.Client, logger *slog.Logger) *Resolver {
	return NewResolverWithBaseURL("https://news.google.com", client, logger)
}

// NewResolverWithBaseURL overrides the aggregator endpoint (used by tests).
func NewResolverWithBaseURL(baseURL string, client *http.Client, logger *slog.Logger) *Resolver {
	trimmed := strings.TrimSuffix(baseURL, "/")
	host := ""
	if u, err := url.Parse(trimmed); err == nil {
		host = u.Host
	}
	return &Resolver{baseURL: trimmed, host: host, client: client, logger: logger}
}

// Resolve returns the publisher URL behind an aggregator redirect, or the
// input unchanged when it is not an aggregator URL or resolution fails.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host != r.host {
		return rawURL
	}

	if resolved := r.followRedirects(ctx, rawURL); resolved != "" {
		return resolved
	}
	if resolved := r.decodeViaBatchExecute(ctx, parsed); resolved != "" {
		return resolved
	}

	r.logger.Warn("could not resolve aggregator url", "url", rawURL)
	return rawURL
}

// followRedirects issues a GET and reports the terminal URL when it left
// the aggregator host.
func (r *Resolver) followRedirects(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("redirect strategy failed", "url", rawURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	if final != nil && final.Host != r.host {
		return final.String()
	}
	return ""
}

// decodeViaBatchExecute recovers the publisher URL for article IDs that
// do not redirect. It scrapes the signature and timestamp attributes from
// the article page and posts them to the batch-decode endpoint.
func (r *Resolver) decodeViaBatchExecute(ctx context.Context, parsed *url.URL) string {
	segments := strings.Split(parsed.Path, "/")
	articleID := segments[len(segments)-1]
	if articleID == "" {
		return ""
	}

	signature, timestamp, ok := r.decodingParams(ctx, articleID)
	if !ok {
		return ""
	}

	inner := fmt.Sprintf(
		`["garturlreq",[["X","X",["X","X"],null,null,1,1,"US:en",null,1,null,null,null,null,null,0,1],"X","X",1,[1,1,1],1,1,null,0,0,null,0],"%s",%s,"%s"]`,
		articleID, timestamp, signature,
	)
	envelope, err := json.Marshal([][][]any{{{"Fbv4je", inner}}})
	if err != nil {
		return ""
	}
	payload := "f.req=" + url.QueryEscape(string(envelope))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/_/DotsSplashUi/data/batchexecute",
		strings.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("batchexecute request failed", "article_id", articleID, "error", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	parts := strings.SplitN(string(body), "\n\n", 2)
	if len(parts) < 2 {
		return ""
	}

	// The payload is JSON carrying a JSON string: the real URL sits at
	// [0][2] -> [1] of the nested document.
	var outer [][]any
	if err := json.Unmarshal([]byte(parts[1]), &outer); err != nil || len(outer) == 0 || len(outer[0]) < 3 {
		return ""
	}
	innerRaw, ok := outer[0][2].(string)
	if !ok {
		return ""
	}
	var decoded []any
	if err := json.Unmarshal([]byte(innerRaw), &decoded); err != nil || len(decoded) < 2 {
		return ""
	}
	resolved, ok := decoded[1].(string)
	if !ok {
		return ""
	}
	return resolved
}

// decodingParams scrapes data-n-a-sg and data-n-a-ts from the article
// page's first c-wiz div.
func (r *Resolver) decodingParams(ctx context.Context, articleID string) (signature, timestamp string, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.baseURL+"/rss/articles/"+articleID, nil)
	if err != nil {
		return "", "", false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("decoding params fetch failed", "article_id", articleID, "error", err)
		return "", "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", false
	}
	div := doc.Find("c-wiz div").First()
	if div.Length() == 0 {
		return "", "", false
	}
	signature, _ = div.Attr("data-n-a-sg")
	timestamp, _ = div.Attr("data-n-a-ts")
	if signature == "" || timestamp == "" {
		return "", "", false
	}
	return signature, timestamp, true
}
