package domain

import (
	"database/sql"
	"fmt"
	"time"
)

// PublishStatus is the lifecycle flag of a stored article.
type PublishStatus string

const (
	StatusUnpublished PublishStatus = "unpublished"
	StatusPublished   PublishStatus = "published"
)

// Article is the persisted record, keyed by URL for deduplication.
type Article struct {
	ID          int64         `db:"id"`
	URL         string        `db:"url"`
	Title       string        `db:"title"`
	Excerpt     string        `db:"excerpt"`
	ArticleDate string        `db:"article_date"`
	FetchedAt   time.Time     `db:"fetched_at"`
	Status      PublishStatus `db:"status"`
	PublishedAt sql.NullTime  `db:"published_at"`
}

// PageContent holds the readable parts extracted from a fetched page.
type PageContent struct {
	Title   string
	Body    string
	Excerpt string
	Date    string
}

// ScanResult is what an index-page scan yields: how many links the page
// carried and which of them matched the configured pattern.
type ScanResult struct {
	Found   int
	Matched []string
}

// Report summarizes a single pipeline run.
type Report struct {
	Links   int // hyperlinks found on the index page
	Matched int // links matching the filter pattern
	New     int // freshly inserted articles
	Skipped int // candidates already stored
	Errors  int // candidates dropped on fetch failure
	Sent    int // notifications delivered this run
	Failed  int // notifications left for the next run
}

func (r Report) String() string {
	return fmt.Sprintf("%d links, %d matched, %d new, %d sent", r.Links, r.Matched, r.New, r.Sent)
}
