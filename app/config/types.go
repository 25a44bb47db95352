package config

// Sources configuration types, loaded from sources.yaml

type Config struct {
	Categories []Category       `yaml:"categories"`
	Feeds      []FeedSource     `yaml:"feeds"`
	Arxiv      ArxivSource      `yaml:"arxiv"`
	HackerNews HackerNewsSource `yaml:"hackernews"`
	Twitter    TwitterSource    `yaml:"twitter"`
	Dedup      DedupSettings    `yaml:"dedup"`
}

// Category is one topic bucket; order in the document is the display order.
type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// SourceOptions are the options every source family recognizes. MaxItems
// is a pointer so an explicit `max_items: 0` (no cap) stays distinguishable
// from an absent field, which receives the family default.
type SourceOptions struct {
	Enabled  *bool    `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
	MaxItems *int     `yaml:"max_items"`
}

// IsEnabled treats a missing enabled flag as on: sources opt out, not in.
func (o SourceOptions) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// Cap returns the per-source item limit; 0 means uncapped.
func (o SourceOptions) Cap() int {
	if o.MaxItems == nil {
		return 0
	}
	return *o.MaxItems
}

type FeedSource struct {
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	Category       string `yaml:"category"`
	ExtractContent bool   `yaml:"extract_content"`

	SourceOptions `yaml:",inline"`
}

type ArxivSource struct {
	Categories          []string `yaml:"categories"` // arXiv subject codes, e.g. cs.AI
	Category            string   `yaml:"category"`
	FilterOrganizations bool     `yaml:"filter_organizations"`

	SourceOptions `yaml:",inline"`
}

type HackerNewsSource struct {
	URL       string `yaml:"url"`
	Category  string `yaml:"category"`
	MinPoints *int   `yaml:"min_points"`

	SourceOptions `yaml:",inline"`
}

// PointsFloor returns the vote-count floor; an explicit `min_points: 0`
// disables it.
func (s HackerNewsSource) PointsFloor() int {
	if s.MinPoints == nil {
		return 0
	}
	return *s.MinPoints
}

type TwitterAccount struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
}

type TwitterSource struct {
	Accounts  []TwitterAccount `yaml:"accounts"`
	Instances []string         `yaml:"instances"` // Nitter instances, tried in order
	Category  string           `yaml:"category"`

	SourceOptions `yaml:",inline"`
}

type DedupSettings struct {
	SimilarityThreshold float64      `yaml:"similarity_threshold"`
	MaxPerCategory      int          `yaml:"max_per_category"`
	Days                *int         `yaml:"days"`
	Weights             ScoreWeights `yaml:"weights"`
}

// FreshnessDays returns the maximum item age in days; an explicit
// `days: 0` disables the window. Undated items always pass it.
func (d DedupSettings) FreshnessDays() int {
	if d.Days == nil {
		return 0
	}
	return *d.Days
}

type ScoreWeights struct {
	Recency     float64 `yaml:"recency"`
	SourceScore float64 `yaml:"source_score"`
	Keywords    float64 `yaml:"keywords"`
}
