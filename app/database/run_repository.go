package database

import (
	"database/sql"
	"fmt"
)

var _ RunRepository = (*RunRepositoryImpl)(nil)

// RunRepositoryImpl records completed pipeline runs together with the
// report each one produced.
type RunRepositoryImpl struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

func (r *RunRepositoryImpl) SaveRun(run Run) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (started_at, duration_ms, collected, published, report)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.DurationMs, run.Collected, run.Published, string(run.Report))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recent run, or nil when none exists.
func (r *RunRepositoryImpl) GetLatestRun() (*Run, error) {
	var run Run
	var report string

	err := r.db.QueryRow(`
		SELECT id, started_at, duration_ms, collected, published, report
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.DurationMs, &run.Collected, &run.Published, &report)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	run.Report = []byte(report)
	return &run, nil
}

func (r *RunRepositoryImpl) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
