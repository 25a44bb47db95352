package digest

import (
	"time"

	"github.com/rillah/ai-digest/app/config"
)

// ScoreFunc assigns a rank score to a surviving item.
type ScoreFunc func(Item) float64

// DefaultScorer combines recency, site-native score and keyword matches
// under the configured weights. The reference time is fixed at
// construction so a run scores deterministically.
func DefaultScorer(now time.Time, weights config.ScoreWeights) ScoreFunc {
	return func(item Item) float64 {
		recency := 0.5 // neutral when the source gave no timestamp
		if item.PublishedAt != nil {
			age := now.Sub(*item.PublishedAt)
			if age < 0 {
				age = 0
			}
			recency = 1 / (1 + age.Hours()/24)
		}

		source := 0.0
		if item.SourceScore > 0 {
			source = item.SourceScore / (item.SourceScore + 100)
		}

		keywords := float64(len(item.KeywordsMatched)) / 3
		if keywords > 1 {
			keywords = 1
		}

		return weights.Recency*recency + weights.SourceScore*source + weights.Keywords*keywords
	}
}
