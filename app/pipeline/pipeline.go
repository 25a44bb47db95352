package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rillah/ai-digest/app/database"
	"github.com/rillah/ai-digest/app/digest"
)

// ItemCollector is the registry surface the pipeline depends on.
type ItemCollector interface {
	CollectAll(ctx context.Context) []digest.Item
}

// Pipeline composes collection, history filtering and deduplication into
// one run. History repositories may be nil, which disables cross-run
// suppression and run records.
type Pipeline struct {
	registry    ItemCollector
	deduper     *digest.Deduper
	history     database.HistoryRepository
	runs        database.RunRepository
	historyDays int
}

func New(registry ItemCollector, deduper *digest.Deduper,
	history database.HistoryRepository, runs database.RunRepository, historyDays int) *Pipeline {
	return &Pipeline{
		registry:    registry,
		deduper:     deduper,
		history:     history,
		runs:        runs,
		historyDays: historyDays,
	}
}

// Run produces the digest report. Given a valid configuration it always
// returns a complete, ordered (possibly empty) report; source and
// history failures reduce the content, never the guarantee.
func (p *Pipeline) Run(ctx context.Context) digest.Report {
	start := time.Now()

	items := p.registry.CollectAll(ctx)
	collected := len(items)
	slog.Info("Collection finished", "items", collected)

	items = p.filterSeen(items)

	report := p.deduper.Process(items)
	report.GeneratedAt = start.UTC()

	slog.Info("Pipeline finished",
		"collected", collected,
		"published", report.TotalItems,
		"categories", len(report.Categories),
		"duration", time.Since(start))

	p.record(report, collected, start)

	return report
}

// filterSeen drops items whose normalized link was already published in
// an earlier digest inside the history window.
func (p *Pipeline) filterSeen(items []digest.Item) []digest.Item {
	if p.history == nil || p.historyDays <= 0 || len(items) == 0 {
		return items
	}

	since := time.Now().UTC().AddDate(0, 0, -p.historyDays)
	seen, err := p.history.SeenSince(since)
	if err != nil {
		slog.Warn("History lookup failed, keeping all items", "error", err)
		return items
	}

	fresh := items[:0]
	for _, item := range items {
		if !seen[digest.NormalizeLink(item.Link)] {
			fresh = append(fresh, item)
		}
	}

	if dropped := len(items) - len(fresh); dropped > 0 {
		slog.Info("Suppressed previously published items", "dropped", dropped)
	}

	return fresh
}

// record persists the run and marks the published links as seen. Storage
// failures are logged, not fatal: the report is already built.
func (p *Pipeline) record(report digest.Report, collected int, start time.Time) {
	if p.history != nil {
		var links []database.SeenLink
		for _, section := range report.Categories {
			for _, item := range section.Items {
				links = append(links, database.SeenLink{
					Link:        digest.NormalizeLink(item.Link),
					Title:       item.Title,
					Category:    item.Category,
					Source:      item.SourceName,
					PublishedAt: item.PublishedAt,
					FirstSeenAt: start.UTC(),
				})
			}
		}
		if err := p.history.MarkSeen(links); err != nil {
			slog.Warn("Failed to record seen links", "error", err)
		}
	}

	if p.runs != nil {
		data, err := json.Marshal(report)
		if err != nil {
			slog.Warn("Failed to marshal report for run record", "error", err)
			return
		}
		run := database.Run{
			StartedAt:  start.UTC(),
			DurationMs: time.Since(start).Milliseconds(),
			Collected:  collected,
			Published:  report.TotalItems,
			Report:     data,
		}
		if err := p.runs.SaveRun(run); err != nil {
			slog.Warn("Failed to record run", "error", err)
		}
	}
}
