package database

import (
	"fmt"
	"time"
)

var _ HistoryRepository = (*HistoryRepositoryImpl)(nil)

// HistoryRepositoryImpl stores links published in earlier digests so a
// story never repeats across runs.
type HistoryRepositoryImpl struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepositoryImpl {
	return &HistoryRepositoryImpl{db: db}
}

// SeenSince returns the set of normalized links first seen at or after
// the given time.
func (r *HistoryRepositoryImpl) SeenSince(since time.Time) (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT link FROM seen_links WHERE first_seen_at >= ?
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query seen links: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan seen link: %w", err)
		}
		seen[link] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen links: %w", err)
	}

	return seen, nil
}

// MarkSeen records published links, ignoring links already on record.
func (r *HistoryRepositoryImpl) MarkSeen(links []SeenLink) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO seen_links (link, title, category, source, published_at, first_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (link) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, link := range links {
		var publishedAt any
		if link.PublishedAt != nil {
			publishedAt = link.PublishedAt.UTC()
		}
		if _, err := stmt.Exec(link.Link, link.Title, link.Category, link.Source,
			publishedAt, link.FirstSeenAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert seen link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

func (r *HistoryRepositoryImpl) SeenCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM seen_links`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count seen links: %w", err)
	}
	return count, nil
}
