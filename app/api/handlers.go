package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rillah/ai-digest/app/cfg"
	"github.com/rillah/ai-digest/app/database"
)

type Handler struct {
	runRepo     database.RunRepository
	historyRepo database.HistoryRepository
}

func NewHandler(runRepo database.RunRepository, historyRepo database.HistoryRepository) *Handler {
	return &Handler{
		runRepo:     runRepo,
		historyRepo: historyRepo,
	}
}

// GetDigest serves the report produced by the most recent run.
func (h *Handler) GetDigest(c *gin.Context) {
	run, err := h.runRepo.GetLatestRun()
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_run", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no digest has been generated yet"})
		return
	}

	c.Header("X-Digest-Generated-At", run.StartedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "application/json; charset=utf-8", run.Report)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if runCount, err := h.runRepo.GetRunCount(); err == nil {
		health["runs"] = runCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if runCount, err := h.runRepo.GetRunCount(); err == nil {
		stats["runs"] = runCount
	}
	if seenCount, err := h.historyRepo.SeenCount(); err == nil {
		stats["seen_links"] = seenCount
	}

	if run, err := h.runRepo.GetLatestRun(); err == nil && run != nil {
		stats["last_run"] = gin.H{
			"started_at":  run.StartedAt.Format(time.RFC3339),
			"duration_ms": run.DurationMs,
			"collected":   run.Collected,
			"published":   run.Published,
		}
	}

	c.JSON(http.StatusOK, stats)
}
