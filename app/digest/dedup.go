package digest

import (
	"cmp"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/rillah/ai-digest/app/config"
)

// Deduper collapses exact and near-duplicate items reported by different
// sources about the same story, then produces the final per-category
// ordering.
type Deduper struct {
	categories     []config.Category
	threshold      float64
	maxPerCategory int
	freshnessDays  int
	now            time.Time
	score          ScoreFunc
}

func NewDeduper(cfg *config.Config, now time.Time, score ScoreFunc) *Deduper {
	return &Deduper{
		categories:     cfg.Categories,
		threshold:      cfg.Dedup.SimilarityThreshold,
		maxPerCategory: cfg.Dedup.MaxPerCategory,
		freshnessDays:  cfg.Dedup.FreshnessDays(),
		now:            now,
		score:          score,
	}
}

// Process runs the full pass: freshness window, exact-key merge,
// title-similarity merge, scoring, and per-category ordering. Categories
// follow the configured display order; empty categories are omitted.
func (d *Deduper) Process(items []Item) Report {
	merged := mergeExact(d.filterFresh(items))
	merged = d.mergeSimilar(merged)

	for i := range merged {
		merged[i].Score = d.score(merged[i])
	}

	grouped := make(map[string][]Item)
	for _, item := range merged {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	var report Report
	for _, cat := range d.categories {
		catItems := grouped[cat.ID]
		if len(catItems) == 0 {
			continue
		}
		sortItems(catItems)
		if d.maxPerCategory > 0 && len(catItems) > d.maxPerCategory {
			catItems = catItems[:d.maxPerCategory]
		}
		report.Categories = append(report.Categories, CategorySection{
			ID:    cat.ID,
			Name:  cmp.Or(cat.Name, cat.ID),
			Items: catItems,
		})
		report.TotalItems += len(catItems)
	}

	return report
}

// filterFresh drops items published before the freshness window; undated
// items pass.
func (d *Deduper) filterFresh(items []Item) []Item {
	if d.freshnessDays <= 0 {
		return items
	}

	cutoff := d.now.AddDate(0, 0, -d.freshnessDays)
	fresh := make([]Item, 0, len(items))
	for _, item := range items {
		if item.PublishedAt == nil || !item.PublishedAt.Before(cutoff) {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

// mergeExact groups items by normalized link and by id, keeping one
// representative per group. Both keys of a merged-in item join the group,
// so a later item sharing either still collapses into it.
func mergeExact(items []Item) []Item {
	out := make([]Item, 0, len(items))
	slots := make(map[string]int)

	for _, item := range items {
		linkKey := "link|" + NormalizeLink(item.Link)
		idKey := "id|" + item.ID

		if idx, ok := slots[linkKey]; ok {
			out[idx] = merge(out[idx], item)
			slots[idKey] = idx
			continue
		}
		if idx, ok := slots[idKey]; ok {
			out[idx] = merge(out[idx], item)
			slots[linkKey] = idx
			continue
		}

		out = append(out, item)
		slots[linkKey] = len(out) - 1
		slots[idKey] = len(out) - 1
	}

	return out
}

// mergeSimilar collapses items whose normalized titles overlap above the
// threshold. Comparison happens only within a category; category
// assignment is authoritative and never crossed.
func (d *Deduper) mergeSimilar(items []Item) []Item {
	type group struct {
		idx    int
		tokens map[string]struct{}
	}

	out := make([]Item, 0, len(items))
	byCategory := make(map[string][]group)

	for _, item := range items {
		tokens := titleTokens(item.Title)

		merged := false
		for _, g := range byCategory[item.Category] {
			if overlap(tokens, g.tokens) >= d.threshold {
				out[g.idx] = merge(out[g.idx], item)
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		out = append(out, item)
		byCategory[item.Category] = append(byCategory[item.Category], group{len(out) - 1, tokens})
	}

	return out
}

// merge keeps one representative of two duplicates and unions their
// matched keywords. The first argument is the earlier-seen item.
func merge(first, second Item) Item {
	rep, other := first, second
	if beats(second, first) {
		rep, other = second, first
	}
	rep.KeywordsMatched = unionKeywords(rep.KeywordsMatched, other.KeywordsMatched)
	return rep
}

// beats reports whether the later-seen item replaces the earlier one as
// group representative: longest non-empty summary, then earliest publish
// date. The earlier item wins every remaining tie.
func beats(later, earlier Item) bool {
	if len(later.Summary) != len(earlier.Summary) {
		return len(later.Summary) > len(earlier.Summary)
	}
	switch {
	case later.PublishedAt == nil:
		return false
	case earlier.PublishedAt == nil:
		return true
	default:
		return later.PublishedAt.Before(*earlier.PublishedAt)
	}
}

func unionKeywords(kept, merged []string) []string {
	if len(merged) == 0 {
		return kept
	}
	seen := make(map[string]bool, len(kept))
	for _, kw := range kept {
		seen[kw] = true
	}
	for _, kw := range merged {
		if !seen[kw] {
			kept = append(kept, kw)
			seen[kw] = true
		}
	}
	return kept
}

var foldCaser = cases.Fold()

// titleTokens normalizes a title into a token set: case-folded,
// punctuation stripped, whitespace collapsed.
func titleTokens(title string) map[string]struct{} {
	folded := foldCaser.String(title)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// overlap is the token overlap coefficient: shared tokens over the size
// of the smaller set. The min denominator keeps truncated syndicated
// titles matching their full-length originals.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// sortItems orders a category: score descending, publish date descending
// with missing dates last, then title ascending. The order is a
// deterministic total order, required for reproducible reports.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
		case a.PublishedAt == nil:
			return false
		case b.PublishedAt == nil:
			return true
		case !a.PublishedAt.Equal(*b.PublishedAt):
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.Title < b.Title
	})
}
