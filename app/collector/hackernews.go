package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"github.com/mmcdole/gofeed"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/digest"
)

// hnrss.org puts "Points: N" / "Comments: N" in the entry description;
// some mirrors use the "N points" form instead.
var (
	hnPointsLabel    = regexp.MustCompile(`(?i)points?:\s*(\d+)`)
	hnPointsInline   = regexp.MustCompile(`(?i)(\d+)\s*points?`)
	hnCommentsLabel  = regexp.MustCompile(`(?i)comments?:\s*(\d+)`)
	hnCommentsInline = regexp.MustCompile(`(?i)(\d+)\s*comments?`)
)

// HackerNewsCollector collects ranked discussions from a Hacker News
// feed (hnrss.org). The site's vote count seeds the item's source score
// so later ranking respects community signal.
type HackerNewsCollector struct {
	source  config.HackerNewsSource
	fetcher *Fetcher
	parser  *gofeed.Parser
}

func NewHackerNewsCollector(source config.HackerNewsSource, fetcher *Fetcher) *HackerNewsCollector {
	return &HackerNewsCollector{
		source:  source,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
	}
}

func (c *HackerNewsCollector) Name() string {
	return "Hacker News"
}

func (c *HackerNewsCollector) Fetch(ctx context.Context) ([]digest.Item, error) {
	data, err := c.fetcher.Get(ctx, c.source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]digest.Item, 0, len(feed.Items))
	skipped := 0

	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			skipped++
			continue
		}

		points := matchCount(entry.Description, hnPointsLabel, hnPointsInline)
		comments := matchCount(entry.Description, hnCommentsLabel, hnCommentsInline)

		if points < c.source.PointsFloor() {
			continue
		}

		matched, ok := matchKeywords(entry.Title, c.source.Keywords)
		if !ok {
			continue
		}

		items = append(items, digest.Item{
			ID:              digest.NewItemID("hackernews", entry.Link),
			Title:           entry.Title,
			Link:            entry.Link,
			Summary:         fmt.Sprintf("%d points, %d comments", points, comments),
			PublishedAt:     utcTime(entry.PublishedParsed),
			SourceName:      "Hacker News",
			Category:        c.source.Category,
			KeywordsMatched: matched,
			SourceScore:     float64(points),
		})
	}

	if skipped > 0 {
		slog.Debug("Skipped malformed feed entries", "source", c.Name(), "skipped", skipped)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SourceScore > items[j].SourceScore
	})

	if limit := c.source.Cap(); limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

func matchCount(text string, patterns ...*regexp.Regexp) int {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			count, err := strconv.Atoi(m[1])
			if err == nil {
				return count
			}
		}
	}
	return 0
}
