package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/digest"
)

const arxivAPIURL = "http://export.arxiv.org/api/query"

const arxivSummaryLimit = 3000

// Well-known labs and companies whose papers stay in the digest when the
// organization filter is on. Pattern -> display name, matched against
// title, abstract and author affiliations.
var arxivOrganizations = []struct {
	pattern string
	name    string
}{
	{"openai", "OpenAI"},
	{"google deepmind", "DeepMind"},
	{"deepmind", "DeepMind"},
	{"anthropic", "Anthropic"},
	{"meta ai", "Meta AI"},
	{"microsoft research", "Microsoft"},
	{"microsoft", "Microsoft"},
	{"nvidia", "NVIDIA"},
	{"apple", "Apple"},
	{"amazon", "Amazon"},
	{"google", "Google"},
	{"mistral", "Mistral AI"},
	{"cohere", "Cohere"},
	{"hugging face", "Hugging Face"},
	{"huggingface", "Hugging Face"},
	{"stability ai", "Stability AI"},
	{"xai", "xAI"},
	{"deepseek", "DeepSeek"},
	{"moonshot", "Moonshot AI"},
	{"zhipu", "Zhipu AI"},
	{"bytedance", "ByteDance"},
	{"alibaba", "Alibaba"},
	{"tencent", "Tencent"},
	{"baidu", "Baidu"},
	{"stanford", "Stanford"},
	{"berkeley", "UC Berkeley"},
	{"carnegie mellon", "CMU"},
	{"eth zurich", "ETH Zurich"},
	{"tsinghua", "Tsinghua"},
	{"allen institute", "Allen Institute"},
	{"eleutherai", "EleutherAI"},
}

var arxivVersionSuffix = regexp.MustCompile(`v\d+$`)

// ArxivCollector queries the arXiv API for the latest submissions in the
// configured subject categories. The API speaks Atom, so the regular feed
// parser handles the response.
type ArxivCollector struct {
	source  config.ArxivSource
	fetcher *Fetcher
	parser  *gofeed.Parser
	apiURL  string
}

func NewArxivCollector(source config.ArxivSource, fetcher *Fetcher) *ArxivCollector {
	return &ArxivCollector{
		source:  source,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
		apiURL:  arxivAPIURL,
	}
}

func (c *ArxivCollector) Name() string {
	return "arXiv"
}

func (c *ArxivCollector) Fetch(ctx context.Context) ([]digest.Item, error) {
	data, err := c.fetcher.Get(ctx, c.queryURL())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch arXiv listing: %w", err)
	}

	feed, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arXiv response: %w", err)
	}

	items := make([]digest.Item, 0, len(feed.Items))
	skipped := 0

	for _, entry := range feed.Items {
		title := strings.Join(strings.Fields(entry.Title), " ")
		if title == "" || entry.Link == "" {
			skipped++
			continue
		}

		summary := truncate(strings.Join(strings.Fields(entry.Description), " "), arxivSummaryLimit)
		authors := entryAuthors(entry)

		matched, ok := matchKeywords(title+" "+summary, c.source.Keywords)
		if !ok {
			continue
		}

		organization := ""
		if c.source.FilterOrganizations {
			organization = detectOrganization(title, summary, authors)
			if organization == "" {
				continue
			}
		}

		items = append(items, digest.Item{
			ID:              arxivID(entry),
			Title:           title,
			Link:            entry.Link,
			Summary:         summary,
			PublishedAt:     utcTime(entry.PublishedParsed),
			SourceName:      "arXiv",
			Category:        c.source.Category,
			Organization:    organization,
			KeywordsMatched: matched,
		})
	}

	if skipped > 0 {
		slog.Debug("Skipped malformed arXiv entries", "skipped", skipped)
	}

	if limit := c.source.Cap(); limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

func (c *ArxivCollector) queryURL() string {
	cats := make([]string, len(c.source.Categories))
	for i, cat := range c.source.Categories {
		cats[i] = "cat:" + cat
	}

	limit := c.source.Cap()
	if limit <= 0 {
		limit = config.DefaultArxivMaxItems
	}

	params := url.Values{}
	params.Set("search_query", "("+strings.Join(cats, " OR ")+")")
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", limit*2))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	return c.apiURL + "?" + params.Encode()
}

// arxivID returns the canonical arXiv identifier, with the version suffix
// dropped so revisions of one paper collapse to the same id.
func arxivID(entry *gofeed.Item) string {
	raw := entry.GUID
	if raw == "" {
		raw = entry.Link
	}
	if idx := strings.Index(raw, "/abs/"); idx >= 0 {
		raw = raw[idx+len("/abs/"):]
	}
	return arxivVersionSuffix.ReplaceAllString(raw, "")
}

func entryAuthors(entry *gofeed.Item) []string {
	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		if author != nil && author.Name != "" {
			authors = append(authors, author.Name)
		}
	}
	return authors
}

func detectOrganization(title, summary string, authors []string) string {
	text := strings.ToLower(title + " " + summary + " " + strings.Join(authors, " "))
	for _, org := range arxivOrganizations {
		if strings.Contains(text, org.pattern) {
			return org.name
		}
	}
	return ""
}
