package database

import (
	"time"
)

// SeenLink is one link already published in an earlier digest.
type SeenLink struct {
	Link        string
	Title       string
	Category    string
	Source      string
	PublishedAt *time.Time
	FirstSeenAt time.Time
}

// Run is one completed pipeline run with its rendered report.
type Run struct {
	ID         int64
	StartedAt  time.Time
	DurationMs int64
	Collected  int
	Published  int
	Report     []byte
}

type HistoryRepository interface {
	SeenSince(since time.Time) (map[string]bool, error)
	MarkSeen(links []SeenLink) error
	SeenCount() (int, error)
}

type RunRepository interface {
	SaveRun(run Run) error
	GetLatestRun() (*Run, error)
	GetRunCount() (int, error)
}
