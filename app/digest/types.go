package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Item is one normalized unit of content. Collectors create Items; the
// Deduper is the only component that mutates one afterwards (Score, merged
// KeywordsMatched).
type Item struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	Summary         string     `json:"summary,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"` // always UTC
	SourceName      string     `json:"source"`
	Category        string     `json:"category"`
	Organization    string     `json:"organization,omitempty"`
	KeywordsMatched []string   `json:"keywords_matched,omitempty"`
	SourceScore     float64    `json:"-"` // site-native points, e.g. HN upvotes
	Score           float64    `json:"score"`
}

// Report is the pipeline output contract consumed by the downstream
// summarizer/renderer stages.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	TotalItems  int               `json:"total_items"`
	Categories  []CategorySection `json:"categories"`
}

type CategorySection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// NewItemID derives a stable identifier from the source and the original
// link or record identifier.
func NewItemID(source, link string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", source, link)))
	return hex.EncodeToString(hash[:])[:12]
}

// Tracking parameters stripped during link normalization.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
}

// NormalizeLink canonicalizes a URL for use as a dedup key: scheme, host
// and path are lower-cased, the fragment is dropped, and tracking query
// parameters are removed. Unparseable input falls back to a trimmed,
// lower-cased copy.
func NormalizeLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(link))
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.ToLower(u.Path)
	u.Fragment = ""

	query := u.Query()
	for param := range query {
		if trackingParams[param] || strings.HasPrefix(param, "utm_") {
			query.Del(param)
		}
	}
	u.RawQuery = query.Encode()

	return u.String()
}
