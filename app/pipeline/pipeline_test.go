package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/database"
	"github.com/rillah/ai-digest/app/digest"
)

type fakeRegistry struct {
	items []digest.Item
}

func (f *fakeRegistry) CollectAll(ctx context.Context) []digest.Item {
	return f.items
}

type fakeHistory struct {
	seen    map[string]bool
	seenErr error
	marked  []database.SeenLink
}

func (f *fakeHistory) SeenSince(since time.Time) (map[string]bool, error) {
	return f.seen, f.seenErr
}

func (f *fakeHistory) MarkSeen(links []database.SeenLink) error {
	f.marked = append(f.marked, links...)
	return nil
}

func (f *fakeHistory) SeenCount() (int, error) {
	return len(f.seen), nil
}

type fakeRuns struct {
	saved []database.Run
}

func (f *fakeRuns) SaveRun(run database.Run) error {
	f.saved = append(f.saved, run)
	return nil
}

func (f *fakeRuns) GetLatestRun() (*database.Run, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	return &f.saved[len(f.saved)-1], nil
}

func (f *fakeRuns) GetRunCount() (int, error) {
	return len(f.saved), nil
}

func testDeduper() *digest.Deduper {
	cfg := &config.Config{
		Categories: []config.Category{
			{ID: "big_tech", Name: "Big Tech"},
			{ID: "papers", Name: "Papers"},
		},
		Dedup: config.DedupSettings{
			SimilarityThreshold: 0.8,
			MaxPerCategory:      5,
			Weights:             config.ScoreWeights{Recency: 0.5, SourceScore: 0.3, Keywords: 0.2},
		},
	}
	now := time.Now().UTC()
	return digest.NewDeduper(cfg, now, digest.DefaultScorer(now, cfg.Dedup.Weights))
}

func timePtr(t time.Time) *time.Time { return &t }

func testItem(title, link string) digest.Item {
	return digest.Item{
		ID:          digest.NewItemID("Test Source", link),
		Title:       title,
		Link:        link,
		Summary:     "summary of " + title,
		PublishedAt: timePtr(time.Now().UTC().Add(-2 * time.Hour)),
		SourceName:  "Test Source",
		Category:    "big_tech",
	}
}

func TestPipelineRun(t *testing.T) {
	registry := &fakeRegistry{items: []digest.Item{
		testItem("First story", "https://example.com/first"),
		testItem("Second story", "https://example.com/second"),
	}}
	history := &fakeHistory{seen: map[string]bool{}}
	runs := &fakeRuns{}

	report := New(registry, testDeduper(), history, runs, 14).Run(context.Background())

	if report.TotalItems != 2 {
		t.Fatalf("Expected 2 published items, got %d", report.TotalItems)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("Expected report timestamp to be set")
	}
	if report.GeneratedAt.Location() != time.UTC {
		t.Errorf("Expected UTC report timestamp, got %v", report.GeneratedAt.Location())
	}

	if len(history.marked) != 2 {
		t.Errorf("Expected 2 links marked as seen, got %d", len(history.marked))
	}
	if len(runs.saved) != 1 {
		t.Fatalf("Expected 1 run record, got %d", len(runs.saved))
	}
	run := runs.saved[0]
	if run.Collected != 2 || run.Published != 2 {
		t.Errorf("Unexpected run stats: collected=%d published=%d", run.Collected, run.Published)
	}
	if len(run.Report) == 0 {
		t.Error("Expected run record to carry the report")
	}
}

func TestPipelineSuppressesSeenLinks(t *testing.T) {
	registry := &fakeRegistry{items: []digest.Item{
		testItem("Already published", "https://example.com/old?utm_source=rss"),
		testItem("Fresh story", "https://example.com/fresh"),
	}}
	history := &fakeHistory{seen: map[string]bool{
		// Stored form is the normalized link
		"https://example.com/old": true,
	}}

	report := New(registry, testDeduper(), history, nil, 14).Run(context.Background())

	if report.TotalItems != 1 {
		t.Fatalf("Expected the seen link suppressed, got %d items", report.TotalItems)
	}
	if report.Categories[0].Items[0].Title != "Fresh story" {
		t.Errorf("Wrong survivor: %s", report.Categories[0].Items[0].Title)
	}
}

func TestPipelineHistoryFailureKeepsItems(t *testing.T) {
	registry := &fakeRegistry{items: []digest.Item{
		testItem("First story", "https://example.com/first"),
	}}
	history := &fakeHistory{seenErr: errors.New("database is locked")}

	report := New(registry, testDeduper(), history, nil, 14).Run(context.Background())

	if report.TotalItems != 1 {
		t.Fatalf("History failure must not drop items, got %d", report.TotalItems)
	}
}

func TestPipelineWithoutHistory(t *testing.T) {
	registry := &fakeRegistry{items: []digest.Item{
		testItem("First story", "https://example.com/first"),
	}}

	report := New(registry, testDeduper(), nil, nil, 0).Run(context.Background())

	if report.TotalItems != 1 {
		t.Fatalf("Expected 1 item without history wiring, got %d", report.TotalItems)
	}
}

func TestPipelineEmptyCollection(t *testing.T) {
	report := New(&fakeRegistry{}, testDeduper(), nil, nil, 0).Run(context.Background())

	if report.TotalItems != 0 {
		t.Errorf("Expected empty report, got %d items", report.TotalItems)
	}
	if len(report.Categories) != 0 {
		t.Errorf("Expected no category sections, got %d", len(report.Categories))
	}
	if report.GeneratedAt.IsZero() {
		t.Error("Expected report timestamp even for an empty run")
	}
}
