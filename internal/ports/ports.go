package ports

import (
	"context"
	"fmt"
	"time"

	"NewsHarvester/internal/domain"
)

// CandidateSource scans the configured index page and returns the
// candidate article URLs that survived pattern filtering.
type CandidateSource interface {
	Scan(ctx context.Context) (domain.ScanResult, error)
}

// TextFetcher retrieves a page (URL or local path) as readable text.
type TextFetcher interface {
	Fetch(ctx context.Context, source string) (domain.PageContent, error)
}

// ArticleRepository persists articles for deduplication and delivery tracking.
type ArticleRepository interface {
	Exists(ctx context.Context, url string) (bool, error)
	InsertIfNew(ctx context.Context, article domain.Article) (bool, error)
	ListUnpublished(ctx context.Context) ([]domain.Article, error)
	MarkPublished(ctx context.Context, url string) error
}

// Notifier delivers a stored article to the outbound channel.
// A nil return means delivered; *RateLimitedError asks the caller to
// back off; any other error leaves the article unpublished for a
// future run.
type Notifier interface {
	Send(ctx context.Context, article domain.Article) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// RateLimitedError reports that the channel asked to slow down.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
