package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// ErrNotFound is returned when an operation targets a URL with no row.
var ErrNotFound = errors.New("article not found")

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    url           TEXT NOT NULL UNIQUE,
    title         TEXT NOT NULL DEFAULT '',
    excerpt       TEXT NOT NULL DEFAULT '',
    article_date  TEXT NOT NULL DEFAULT '',
    fetched_at    TIMESTAMP NOT NULL,
    status        TEXT NOT NULL DEFAULT 'unpublished',
    published_at  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_articles_status ON articles (status, fetched_at);
`

// SQLiteRepository persists articles in an embedded SQLite database.
type SQLiteRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*SQLiteRepository)(nil)

// New bootstraps the schema and wires the connection.
func New(db *sqlx.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &SQLiteRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Exists reports whether a URL is already stored, so callers can skip
// re-fetching its body.
func (r *SQLiteRepository) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := r.sb.Select("1").
		From("articles").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}

	return true, nil
}

// InsertIfNew stores the article unless its URL is already present.
// The insert is atomic: repeated calls for the same URL yield exactly
// one true result and never a duplicate row or an error.
func (r *SQLiteRepository) InsertIfNew(ctx context.Context, article domain.Article) (bool, error) {
	fetchedAt := article.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	query, args, err := r.sb.Insert("articles").
		Columns("url", "title", "excerpt", "article_date", "fetched_at", "status").
		Values(article.URL, article.Title, article.Excerpt, article.ArticleDate, fetchedAt, domain.StatusUnpublished).
		Suffix("ON CONFLICT(url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// ListUnpublished returns articles awaiting notification, oldest first.
func (r *SQLiteRepository) ListUnpublished(ctx context.Context) ([]domain.Article, error) {
	query, args, err := r.sb.Select("id", "url", "title", "excerpt", "article_date", "fetched_at", "status", "published_at").
		From("articles").
		Where(sq.Eq{"status": domain.StatusUnpublished}).
		OrderBy("fetched_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var articles []domain.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("query unpublished: %w", err)
	}

	return articles, nil
}

// MarkPublished flips the one-way unpublished -> published transition.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, url string) error {
	query, args, err := r.sb.Update("articles").
		Set("status", domain.StatusPublished).
		Set("published_at", time.Now().UTC()).
		Where(sq.Eq{"url": url, "status": domain.StatusUnpublished}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
