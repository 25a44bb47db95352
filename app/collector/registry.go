package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/digest"
)

// Registry holds the configured collector instances and runs them
// concurrently. A single source's failure is logged and contributes an
// empty result; it never aborts the run.
type Registry struct {
	collectors []Collector
	timeout    time.Duration
}

// NewRegistry builds collectors for every enabled source, in
// configuration order: feeds first, then arXiv, Hacker News, Twitter.
func NewRegistry(sources *config.Config, fetcher *Fetcher, timeout time.Duration) *Registry {
	var collectors []Collector

	for _, feed := range sources.Feeds {
		if feed.IsEnabled() {
			collectors = append(collectors, NewRSSCollector(feed, fetcher))
		}
	}
	if sources.Arxiv.IsEnabled() {
		collectors = append(collectors, NewArxivCollector(sources.Arxiv, fetcher))
	}
	if sources.HackerNews.IsEnabled() {
		collectors = append(collectors, NewHackerNewsCollector(sources.HackerNews, fetcher))
	}
	if sources.Twitter.IsEnabled() && len(sources.Twitter.Accounts) > 0 {
		collectors = append(collectors, NewTwitterCollector(sources.Twitter, fetcher))
	}

	return &Registry{collectors: collectors, timeout: timeout}
}

// NewRegistryFromCollectors wires pre-built collectors, used by tests.
func NewRegistryFromCollectors(collectors []Collector, timeout time.Duration) *Registry {
	return &Registry{collectors: collectors, timeout: timeout}
}

func (r *Registry) Size() int {
	return len(r.collectors)
}

// CollectAll runs every collector with an independent timeout and waits
// for all of them. The flat result preserves collector configuration
// order; no cross-source ordering beyond that is guaranteed.
func (r *Registry) CollectAll(ctx context.Context) []digest.Item {
	results := make([][]digest.Item, len(r.collectors))

	var wg sync.WaitGroup
	for i, c := range r.collectors {
		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			items, err := c.Fetch(fetchCtx)
			if err != nil {
				slog.Warn("Source collection failed", "source", c.Name(), "error", err)
				return
			}

			results[i] = items
			slog.Info("Source collected", "source", c.Name(), "items", len(items), "duration", time.Since(start))
		}(i, c)
	}
	wg.Wait()

	var all []digest.Item
	for _, items := range results {
		all = append(all, items...)
	}

	return all
}
