package collector

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rillah/ai-digest/app/digest"
)

// Collector turns one external source's raw payload into Items. Fetch
// performs a single bounded network round-trip; a zero-item result is not
// an error.
type Collector interface {
	Name() string
	Fetch(ctx context.Context) ([]digest.Item, error)
}

// Fetcher is the shared HTTP helper used by every collector.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		userAgent: userAgent,
	}
}

// Get fetches a URL and returns the response body.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

var htmlPolicy = bluemonday.StrictPolicy()

// stripHTML removes markup and entities from feed-supplied text and
// collapses whitespace.
func stripHTML(text string) string {
	stripped := html.UnescapeString(htmlPolicy.Sanitize(text))
	return strings.Join(strings.Fields(stripped), " ")
}

// matchKeywords returns the configured keywords found in the item text,
// case-insensitive substring match. An empty keyword set accepts
// everything.
func matchKeywords(text string, keywords []string) (matched []string, ok bool) {
	if len(keywords) == 0 {
		return nil, true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched, len(matched) > 0
}

// truncate shortens a string to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// utcTime converts a parsed feed timestamp to UTC, keeping nil as nil.
func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
