package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rillah/ai-digest/app/config"
)

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "AI-Digest-Test/1.0")
}

func intPtr(n int) *int {
	return &n
}

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>New LLM benchmark released</title>
      <link>https://example.com/llm-benchmark</link>
      <description>&lt;p&gt;A &lt;b&gt;new&lt;/b&gt; benchmark for language models.&lt;/p&gt;</description>
      <pubDate>Sat, 29 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Chip fabrication update</title>
      <link>https://example.com/chips</link>
      <description>Nothing about language models here.</description>
      <pubDate>Sat, 29 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Quarterly earnings report</title>
      <link>https://example.com/earnings</link>
      <description>Financial results.</description>
    </item>
  </channel>
</rss>`

func TestRSSCollectorKeywordFilter(t *testing.T) {
	server := serveFeed(t, rssFixture)

	source := config.FeedSource{
		Name:     "Test Feed",
		URL:      server.URL,
		Category: "big_tech",
		SourceOptions: config.SourceOptions{
			Keywords: []string{"LLM"},
			MaxItems: intPtr(10),
		},
	}

	items, err := NewRSSCollector(source, testFetcher()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected exactly 1 item matching 'LLM', got %d", len(items))
	}

	item := items[0]
	if item.Title != "New LLM benchmark released" {
		t.Errorf("Unexpected item: %s", item.Title)
	}
	if len(item.KeywordsMatched) != 1 || item.KeywordsMatched[0] != "LLM" {
		t.Errorf("Expected matched keyword [LLM], got %v", item.KeywordsMatched)
	}
}

func TestRSSCollectorNormalization(t *testing.T) {
	server := serveFeed(t, rssFixture)

	source := config.FeedSource{
		Name:          "Test Feed",
		URL:           server.URL,
		Category:      "big_tech",
		SourceOptions: config.SourceOptions{MaxItems: intPtr(10)},
	}

	items, err := NewRSSCollector(source, testFetcher()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Summary != "A new benchmark for language models." {
		t.Errorf("Expected HTML-stripped summary, got %q", first.Summary)
	}
	if first.PublishedAt == nil {
		t.Fatal("Expected published timestamp")
	}
	if first.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", first.PublishedAt.Location())
	}
	if first.Category != "big_tech" {
		t.Errorf("Expected collector-assigned category, got %s", first.Category)
	}
	if first.ID == "" || first.ID == items[1].ID {
		t.Error("Expected stable distinct item ids")
	}

	// No pubDate is allowed
	if items[2].PublishedAt != nil {
		t.Error("Expected nil timestamp for entry without pubDate")
	}
}

func TestRSSCollectorMaxItems(t *testing.T) {
	server := serveFeed(t, rssFixture)

	source := config.FeedSource{
		Name:          "Test Feed",
		URL:           server.URL,
		Category:      "big_tech",
		SourceOptions: config.SourceOptions{MaxItems: intPtr(2)},
	}

	items, err := NewRSSCollector(source, testFetcher()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected max_items cap of 2, got %d", len(items))
	}
	// Source-native order preserved
	if items[0].Title != "New LLM benchmark released" || items[1].Title != "Chip fabrication update" {
		t.Errorf("Expected source order preserved, got [%s, %s]", items[0].Title, items[1].Title)
	}
}

func TestRSSCollectorSkipsMalformedEntries(t *testing.T) {
	server := serveFeed(t, `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <description>No title or link here.</description>
    </item>
    <item>
      <title>Valid entry</title>
      <link>https://example.com/valid</link>
    </item>
  </channel>
</rss>`)

	source := config.FeedSource{
		Name:          "Test Feed",
		URL:           server.URL,
		Category:      "big_tech",
		SourceOptions: config.SourceOptions{MaxItems: intPtr(10)},
	}

	items, err := NewRSSCollector(source, testFetcher()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Malformed entries must not fail the source, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 valid item, got %d", len(items))
	}
}

func TestRSSCollectorHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	source := config.FeedSource{
		Name:          "Broken Feed",
		URL:           server.URL,
		Category:      "big_tech",
		SourceOptions: config.SourceOptions{MaxItems: intPtr(10)},
	}

	_, err := NewRSSCollector(source, testFetcher()).Fetch(context.Background())
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
}
