package domain

import (
	"math"
	"strings"
)

// PostRef identifies a post found on the listing page.
type PostRef struct {
	ID    string
	Title string
	URL   string
}

// ArticleContent is what the extractor reads from a rendered post.
type ArticleContent struct {
	Text        string
	PublishedAt string
}

// WordStats compares the size of a summary against its source article.
type WordStats struct {
	Original         int     `json:"original"`
	Summary          int     `json:"summary"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// FacetSummary is one summary slot of a record.
type FacetSummary struct {
	Summary   string    `json:"summary"`
	WordStats WordStats `json:"word_stats"`
}

// BlogRecord is the persisted, append-only result for one post.
type BlogRecord struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Date        string                  `json:"date"`
	OriginalURL string                  `json:"original_url"`
	Source      string                  `json:"source,omitempty"`
	Summaries   map[string]FacetSummary `json:"summaries"`
}

// CountWords returns the number of whitespace separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// NewWordStats computes word statistics for a summary of an article holding
// original words. An empty original yields a reduction of 0.
func NewWordStats(original int, summary string) WordStats {
	n := CountWords(summary)
	return WordStats{
		Original:         original,
		Summary:          n,
		ReductionPercent: ReductionPercent(original, n),
	}
}

// ReductionPercent returns round((1 - summary/original) * 100, 1), or 0 when
// original is not positive.
func ReductionPercent(original, summary int) float64 {
	if original <= 0 {
		return 0
	}
	pct := (1 - float64(summary)/float64(original)) * 100
	return math.Round(pct*10) / 10
}

// DateOnly trims an ISO timestamp down to its date part.
func DateOnly(datetime string) string {
	datetime = strings.TrimSpace(datetime)
	if i := strings.IndexByte(datetime, 'T'); i >= 0 {
		return datetime[:i]
	}
	return datetime
}
