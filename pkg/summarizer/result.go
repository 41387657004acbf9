package summarizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
)

// Status tags the outcome of one summarization call.
type Status int

const (
	StatusOK Status = iota
	StatusNoContent
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoContent:
		return "no_content"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is one summarization call. A nil Facet asks for the general summary.
type Request struct {
	Text  string
	Facet *domain.Facet
}

// Key is the summaries map key the result belongs to.
func (r Request) Key() string {
	if r.Facet == nil {
		return domain.GeneralKey
	}
	return r.Facet.Key()
}

// Result keeps successful text, the "nothing relevant" answer and backend
// failures apart until the record is persisted.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// Stored returns the string written into the record for this result.
func (r Result) Stored() string {
	switch r.Status {
	case StatusNoContent:
		return domain.FallbackSummary
	case StatusFailed:
		return domain.SummaryFailed
	default:
		return r.Text
	}
}

// Summarizer produces summaries. Implementations never fail the caller:
// backend errors come back as StatusFailed.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) Result
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// classify turns raw backend text into a tagged Result.
func classify(text string) Result {
	text = strings.TrimSpace(text)
	if isFallback(text) {
		return Result{Status: StatusNoContent, Text: domain.FallbackSummary}
	}
	return Result{Status: StatusOK, Text: text}
}

// isFallback reports whether text is the fallback sentence, ignoring
// markup, quotes and surrounding whitespace.
func isFallback(text string) bool {
	bare := htmlTagPattern.ReplaceAllString(text, "")
	bare = strings.Trim(strings.TrimSpace(bare), "\"'“”` \n\t")
	return strings.EqualFold(strings.TrimSpace(bare), domain.FallbackSummary)
}
