package crawler

import (
	"context"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/pkg/publishers"
)

// ArticleExtractor reads the body text and publish date of a post.
type ArticleExtractor interface {
	Extract(ctx context.Context, url string) (domain.ArticleContent, error)
}

// RecordStore loads and rewrites the persisted collection.
type RecordStore interface {
	Load() ([]domain.BlogRecord, error)
	Save(records []domain.BlogRecord) error
}

// AttemptTracker remembers posts that failed extraction.
type AttemptTracker interface {
	Failures(id string) (int, error)
	RecordFailure(id string, cause error) (int, error)
	Clear(id string) error
}

// EventPublisher publishes persisted records downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) error
}
