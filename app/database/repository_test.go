package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestHistoryRepositoryMarkAndLookup(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-2 * time.Hour)

	links := []SeenLink{
		{Link: "https://example.com/first", Title: "First", Category: "big_tech",
			Source: "Test Feed", PublishedAt: &published, FirstSeenAt: now},
		{Link: "https://example.com/second", Title: "Second", Category: "papers",
			Source: "arXiv", FirstSeenAt: now},
	}
	if err := repo.MarkSeen(links); err != nil {
		t.Fatalf("Failed to mark links: %v", err)
	}

	seen, err := repo.SeenSince(now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("Failed to query seen links: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("Expected 2 seen links, got %d", len(seen))
	}
	if !seen["https://example.com/first"] || !seen["https://example.com/second"] {
		t.Errorf("Missing links in lookup: %v", seen)
	}

	// Outside the window
	seen, err = repo.SeenSince(now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to query seen links: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("Expected no links after the window start, got %d", len(seen))
	}
}

func TestHistoryRepositoryIgnoresDuplicates(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t))

	now := time.Now().UTC()
	link := SeenLink{Link: "https://example.com/story", Title: "Story",
		Category: "big_tech", Source: "Test Feed", FirstSeenAt: now}

	if err := repo.MarkSeen([]SeenLink{link}); err != nil {
		t.Fatalf("Failed to mark link: %v", err)
	}
	if err := repo.MarkSeen([]SeenLink{link}); err != nil {
		t.Fatalf("Re-marking a known link must not fail: %v", err)
	}

	count, err := repo.SeenCount()
	if err != nil {
		t.Fatalf("Failed to count links: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 link on record, got %d", count)
	}
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	latest, err := repo.GetLatestRun()
	if err != nil {
		t.Fatalf("Failed to query empty runs table: %v", err)
	}
	if latest != nil {
		t.Fatal("Expected nil run before any was saved")
	}

	first := Run{
		StartedAt:  time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
		DurationMs: 1200,
		Collected:  40,
		Published:  12,
		Report:     []byte(`{"total_items":12}`),
	}
	second := Run{
		StartedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		DurationMs: 900,
		Collected:  35,
		Published:  10,
		Report:     []byte(`{"total_items":10}`),
	}

	if err := repo.SaveRun(first); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if err := repo.SaveRun(second); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	latest, err = repo.GetLatestRun()
	if err != nil {
		t.Fatalf("Failed to get latest run: %v", err)
	}
	if latest == nil {
		t.Fatal("Expected a run record")
	}
	if latest.Collected != 35 || latest.Published != 10 {
		t.Errorf("Expected most recent run, got collected=%d published=%d", latest.Collected, latest.Published)
	}
	if string(latest.Report) != `{"total_items":10}` {
		t.Errorf("Report did not survive the round trip: %s", latest.Report)
	}

	count, err := repo.GetRunCount()
	if err != nil {
		t.Fatalf("Failed to count runs: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 runs, got %d", count)
	}
}
