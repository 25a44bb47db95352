package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxItems            = 10
	DefaultArxivMaxItems       = 50
	DefaultMinPoints           = 50
	DefaultSimilarityThreshold = 0.8
	DefaultMaxPerCategory      = 5
	DefaultFreshnessDays       = 7
	DefaultHackerNewsURL       = "https://hnrss.org/frontpage"
)

// Load reads and validates the sources configuration. Any validation
// failure here is fatal: it is surfaced before a single fetch starts.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid sources configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(config *Config) {
	// Source blocks absent from the document stay off instead of
	// inheriting defaults.
	off := false
	if config.Arxiv.Enabled == nil && len(config.Arxiv.Categories) == 0 && config.Arxiv.Category == "" {
		config.Arxiv.Enabled = &off
	}
	if config.HackerNews.Enabled == nil && config.HackerNews.URL == "" && config.HackerNews.Category == "" {
		config.HackerNews.Enabled = &off
	}
	if config.Twitter.Enabled == nil && len(config.Twitter.Accounts) == 0 {
		config.Twitter.Enabled = &off
	}

	for i := range config.Feeds {
		if config.Feeds[i].MaxItems == nil {
			config.Feeds[i].MaxItems = intPtr(DefaultMaxItems)
		}
	}

	if len(config.Arxiv.Categories) == 0 {
		config.Arxiv.Categories = []string{"cs.AI", "cs.LG"}
	}
	if config.Arxiv.Category == "" {
		config.Arxiv.Category = "papers"
	}
	if config.Arxiv.MaxItems == nil {
		config.Arxiv.MaxItems = intPtr(DefaultArxivMaxItems)
	}

	if config.HackerNews.URL == "" {
		config.HackerNews.URL = DefaultHackerNewsURL
	}
	if config.HackerNews.Category == "" {
		config.HackerNews.Category = "social"
	}
	if config.HackerNews.MinPoints == nil {
		config.HackerNews.MinPoints = intPtr(DefaultMinPoints)
	}
	if config.HackerNews.MaxItems == nil {
		config.HackerNews.MaxItems = intPtr(DefaultMaxItems)
	}

	if config.Twitter.Category == "" {
		config.Twitter.Category = "social"
	}
	if config.Twitter.MaxItems == nil {
		config.Twitter.MaxItems = intPtr(DefaultMaxItems)
	}

	if config.Dedup.SimilarityThreshold == 0 {
		config.Dedup.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if config.Dedup.MaxPerCategory == 0 {
		config.Dedup.MaxPerCategory = DefaultMaxPerCategory
	}
	if config.Dedup.Days == nil {
		config.Dedup.Days = intPtr(DefaultFreshnessDays)
	}
	if config.Dedup.Weights == (ScoreWeights{}) {
		config.Dedup.Weights = ScoreWeights{Recency: 0.5, SourceScore: 0.3, Keywords: 0.2}
	}
}

func validate(config *Config) error {
	if len(config.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool, len(config.Categories))
	for i, cat := range config.Categories {
		if cat.ID == "" {
			return fmt.Errorf("category at index %d has an empty id", i)
		}
		if seen[cat.ID] {
			return fmt.Errorf("duplicate category: %s", cat.ID)
		}
		seen[cat.ID] = true
	}

	for i, feed := range config.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feed at index %d: name is required", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feed %s: url is required", feed.Name)
		}
		if feed.Category == "" {
			return fmt.Errorf("feed %s: category is required", feed.Name)
		}
		if !seen[feed.Category] {
			return fmt.Errorf("feed %s: unknown category: %s", feed.Name, feed.Category)
		}
		if feed.MaxItems != nil && *feed.MaxItems < 0 {
			return fmt.Errorf("feed %s: max_items must be non-negative", feed.Name)
		}
	}

	if config.Arxiv.IsEnabled() && !seen[config.Arxiv.Category] {
		return fmt.Errorf("arxiv: unknown category: %s", config.Arxiv.Category)
	}
	if config.HackerNews.IsEnabled() && !seen[config.HackerNews.Category] {
		return fmt.Errorf("hackernews: unknown category: %s", config.HackerNews.Category)
	}
	if config.Twitter.IsEnabled() && len(config.Twitter.Accounts) > 0 && !seen[config.Twitter.Category] {
		return fmt.Errorf("twitter: unknown category: %s", config.Twitter.Category)
	}
	if config.Twitter.IsEnabled() && len(config.Twitter.Accounts) > 0 && len(config.Twitter.Instances) == 0 {
		return fmt.Errorf("twitter: at least one Nitter instance is required when accounts are configured")
	}

	if config.HackerNews.MinPoints != nil && *config.HackerNews.MinPoints < 0 {
		return fmt.Errorf("hackernews: min_points must be non-negative")
	}

	if t := config.Dedup.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("dedup: similarity_threshold must be in (0, 1], got %v", t)
	}
	if config.Dedup.MaxPerCategory < 0 {
		return fmt.Errorf("dedup: max_per_category must be non-negative")
	}
	if config.Dedup.Days != nil && *config.Dedup.Days < 0 {
		return fmt.Errorf("dedup: days must be non-negative")
	}
	w := config.Dedup.Weights
	if w.Recency < 0 || w.SourceScore < 0 || w.Keywords < 0 {
		return fmt.Errorf("dedup: scoring weights must be non-negative")
	}
	if w.Recency+w.SourceScore+w.Keywords == 0 {
		return fmt.Errorf("dedup: at least one scoring weight must be positive")
	}

	return nil
}

func intPtr(n int) *int {
	return &n
}

// CategoryName returns the display name for a category id, falling back
// to the id itself.
func (c *Config) CategoryName(id string) string {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return id
}

// HasCategory reports whether id is part of the configured enumeration.
func (c *Config) HasCategory(id string) bool {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}
