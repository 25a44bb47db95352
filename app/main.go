package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rillah/ai-digest/app/api"
	"github.com/rillah/ai-digest/app/cfg"
	"github.com/rillah/ai-digest/app/collector"
	"github.com/rillah/ai-digest/app/config"
	"github.com/rillah/ai-digest/app/database"
	"github.com/rillah/ai-digest/app/digest"
	"github.com/rillah/ai-digest/app/pipeline"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting AI Digest", "version", appCfg.Version)

	sources, err := config.Load(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources configuration", "path", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources configuration loaded",
		"categories", len(sources.Categories), "feeds", len(sources.Feeds))

	var historyRepo database.HistoryRepository
	var runRepo database.RunRepository
	if appCfg.DBPath != "" {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open history database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Debug("History database ready", "migration_version", version, "dirty", dirty)

		historyRepo = database.NewHistoryRepository(db)
		runRepo = database.NewRunRepository(db)
	}

	fetchTimeout := time.Duration(appCfg.FetchTimeout) * time.Second
	fetcher := collector.NewFetcher(fetchTimeout, appCfg.UserAgent)
	registry := collector.NewRegistry(sources, fetcher, fetchTimeout)
	slog.Info("Collectors configured", "count", registry.Size())

	now := time.Now().UTC()
	scorer := digest.DefaultScorer(now, sources.Dedup.Weights)
	deduper := digest.NewDeduper(sources, now, scorer)

	p := pipeline.New(registry, deduper, historyRepo, runRepo, appCfg.HistoryDays)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := p.Run(ctx)

	if err := writeReport(report, appCfg.OutputPath); err != nil {
		slog.Error("Failed to write report", "error", err)
		os.Exit(1)
	}

	if !appCfg.Serve {
		return
	}

	if runRepo == nil {
		slog.Error("Serve mode requires a history database (set --db-path)")
		os.Exit(1)
	}

	serve(ctx, appCfg, api.NewHandler(runRepo, historyRepo))
}

func writeReport(report digest.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	slog.Info("Report written", "path", path, "bytes", len(data))
	return nil
}

func serve(ctx context.Context, appCfg *cfg.Cfg, handler *api.Handler) {
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
