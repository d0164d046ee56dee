// ABOUTME: This file defines the news source contract shared by the three backends
// ABOUTME: Adapters swallow transport and parse failures; only quota signals surface as errors
package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"heat-collector/models"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// SearchOptions carries the region context a query runs under. The values
// end up on every ArticleRef the search produces.
type SearchOptions struct {
	Country    string
	State      string
	SearchTerm string
}

// Source is a single news backend. Search returns an empty slice on any
// transport or parse failure; the only errors it surfaces are the
// distinguished quota signals below, which the scheduler handles.
type Source interface {
	Name() string
	SupportsLanguage(language string) bool
	Search(ctx context.Context, queryString, language string, opts SearchOptions) ([]models.ArticleRef, error)
	Close()
}

// RateLimitError is the distinguished 429 signal. The scheduler's retry
// wrapper backs off and reissues the request when it sees one.
type RateLimitError struct {
	SourceName string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited", e.SourceName)
}

// IsRateLimit reports whether err carries a rate-limit signal.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// ErrQuotaExhausted signals an HTTP 403 from a quota-limited backend. The
// scheduler zeroes the source's remaining budget when it sees this.
var ErrQuotaExhausted = errors.New("daily quota exhausted")

// newHTTPClient builds the adapter-owned client with conservative timeouts.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
		},
	}
}
