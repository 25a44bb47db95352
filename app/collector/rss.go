package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/digest"
)

const summaryLimit = 500

// RSSCollector collects items from one RSS/Atom feed.
type RSSCollector struct {
	source    config.FeedSource
	fetcher   *Fetcher
	parser    *gofeed.Parser
	extractor *ContentExtractor
}

func NewRSSCollector(source config.FeedSource, fetcher *Fetcher) *RSSCollector {
	return &RSSCollector{
		source:    source,
		fetcher:   fetcher,
		parser:    gofeed.NewParser(),
		extractor: NewContentExtractor(),
	}
}

func (c *RSSCollector) Name() string {
	return c.source.Name
}

func (c *RSSCollector) Fetch(ctx context.Context) ([]digest.Item, error) {
	data, err := c.fetcher.Get(ctx, c.source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := c.source.Cap()
	items := make([]digest.Item, 0, len(feed.Items))
	skipped := 0

	for _, entry := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}

		if entry.Title == "" || entry.Link == "" {
			skipped++
			continue
		}

		summary := truncate(stripHTML(entry.Description), summaryLimit)

		matched, ok := matchKeywords(entry.Title+" "+summary, c.source.Keywords)
		if !ok {
			continue
		}

		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}

		if summary == "" && c.source.ExtractContent {
			summary = c.extractSummary(ctx, entry.Link)
		}

		items = append(items, digest.Item{
			ID:              digest.NewItemID(c.source.Name, entry.Link),
			Title:           entry.Title,
			Link:            entry.Link,
			Summary:         summary,
			PublishedAt:     utcTime(published),
			SourceName:      c.source.Name,
			Category:        c.source.Category,
			KeywordsMatched: matched,
		})
	}

	if skipped > 0 {
		slog.Debug("Skipped malformed feed entries", "source", c.source.Name, "skipped", skipped)
	}

	return items, nil
}

// extractSummary fetches the entry page and pulls a readable excerpt.
// Extraction is best effort: any failure leaves the summary empty.
func (c *RSSCollector) extractSummary(ctx context.Context, link string) string {
	data, err := c.fetcher.Get(ctx, link)
	if err != nil {
		slog.Debug("Content extraction fetch failed", "source", c.source.Name, "link", link, "error", err)
		return ""
	}

	excerpt, err := c.extractor.Run(data)
	if err != nil {
		slog.Debug("Content extraction failed", "source", c.source.Name, "link", link, "error", err)
		return ""
	}

	return truncate(excerpt, summaryLimit)
}
