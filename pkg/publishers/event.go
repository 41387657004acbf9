package publishers

import (
	"context"
	"sort"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
)

// EventTypeRecordCreated is emitted once a new record has been persisted.
const EventTypeRecordCreated = "record.created"

// Event is the payload delivered to every sink.
type Event struct {
	Type        string            `json:"type"`
	SourceID    string            `json:"source_id"`
	RecordID    string            `json:"record_id"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Date        string            `json:"date,omitempty"`
	Facets      []string          `json:"facets"`
	Record      domain.BlogRecord `json:"record"`
	PublishedAt time.Time         `json:"published_at"`
}

// NewRecordEvent wraps a freshly stored record.
func NewRecordEvent(sourceID string, rec domain.BlogRecord) Event {
	facets := make([]string, 0, len(rec.Summaries))
	for key := range rec.Summaries {
		facets = append(facets, key)
	}
	sort.Strings(facets)

	return Event{
		Type:        EventTypeRecordCreated,
		SourceID:    sourceID,
		RecordID:    rec.ID,
		Title:       rec.Title,
		URL:         rec.OriginalURL,
		Date:        rec.Date,
		Facets:      facets,
		Record:      rec,
		PublishedAt: time.Now().UTC(),
	}
}

// Publisher delivers events to one configured sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the logging surface publishers need.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
