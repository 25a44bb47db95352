package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/digest"
)

const tweetsPerAccount = 5

const tweetLength = 280

var picLinkPattern = regexp.MustCompile(`pic\.twitter\.com/\S+`)

// TwitterCollector collects recent posts from configured accounts via
// Nitter RSS mirrors. This source is allowed to be absent: when no
// instance answers, the collector degrades to an empty result instead of
// failing the run.
type TwitterCollector struct {
	source  config.TwitterSource
	fetcher *Fetcher
	parser  *gofeed.Parser
}

func NewTwitterCollector(source config.TwitterSource, fetcher *Fetcher) *TwitterCollector {
	return &TwitterCollector{
		source:  source,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
	}
}

func (c *TwitterCollector) Name() string {
	return "Twitter/X"
}

func (c *TwitterCollector) Fetch(ctx context.Context) ([]digest.Item, error) {
	var all []digest.Item

	for _, account := range c.source.Accounts {
		items := c.collectAccount(ctx, account)
		all = append(all, items...)

		if ctx.Err() != nil {
			break
		}
	}

	if limit := c.source.Cap(); limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all, nil
}

func (c *TwitterCollector) collectAccount(ctx context.Context, account config.TwitterAccount) []digest.Item {
	displayName := account.Name
	if displayName == "" {
		displayName = account.Username
	}
	if !strings.HasPrefix(displayName, "@") {
		displayName = "@" + displayName
	}

	for _, instance := range c.source.Instances {
		feedURL := fmt.Sprintf("%s/%s/rss", strings.TrimRight(instance, "/"), account.Username)

		items, err := c.fetchTimeline(ctx, feedURL, displayName)
		if err != nil {
			slog.Debug("Nitter instance failed", "account", account.Username, "instance", instance, "error", err)
			continue
		}
		if len(items) > 0 {
			return items
		}
	}

	return nil
}

func (c *TwitterCollector) fetchTimeline(ctx context.Context, feedURL, displayName string) ([]digest.Item, error) {
	data, err := c.fetcher.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	items := make([]digest.Item, 0, tweetsPerAccount)

	for _, entry := range feed.Items {
		if len(items) >= tweetsPerAccount {
			break
		}

		text := cleanTweet(entry.Title)
		if text == "" || entry.Link == "" {
			continue
		}
		if strings.HasPrefix(text, "RT @") {
			continue
		}

		matched, ok := matchKeywords(text, c.source.Keywords)
		if !ok {
			continue
		}

		items = append(items, digest.Item{
			ID:              digest.NewItemID(displayName, entry.Link),
			Title:           truncate(text, tweetLength),
			Link:            entry.Link,
			PublishedAt:     utcTime(entry.PublishedParsed),
			SourceName:      displayName,
			Category:        c.source.Category,
			KeywordsMatched: matched,
		})
	}

	return items, nil
}

func cleanTweet(text string) string {
	text = picLinkPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
