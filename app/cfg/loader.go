package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pipeline configuration
	SourcesFile  string `long:"sources" env:"SOURCES_FILE" default:"./sources.yaml" description:"Path to the sources configuration file"`
	OutputPath   string `long:"output" env:"OUTPUT_PATH" description:"Path for the digest report JSON (stdout when empty)"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./digest.db" description:"Path to the SQLite history database (empty disables history)"`
	HistoryDays  int    `long:"history-days" env:"HISTORY_DAYS" default:"14" description:"Suppress links already published within this many days (0 disables)"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-source fetch timeout in seconds"`

	// HTTP server configuration
	Serve        bool   `long:"serve" env:"SERVE" description:"Serve the latest digest over HTTP after the run"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"AI-Digest/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesFile:  raw.SourcesFile,
		OutputPath:   raw.OutputPath,
		DBPath:       raw.DBPath,
		HistoryDays:  raw.HistoryDays,
		FetchTimeout: raw.FetchTimeout,
		Serve:        raw.Serve,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		UserAgent:    raw.UserAgent,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
