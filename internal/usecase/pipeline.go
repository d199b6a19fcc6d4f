package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// A longer server backoff than this means the article is left for the
// next run instead of stalling the batch.
const maxRateLimitWait = 30 * time.Second

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.CandidateSource
	Fetcher    ports.TextFetcher
	Repository ports.ArticleRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements the fetch -> filter -> dedup-store -> notify workflow.
// Each distinct URL is stored at most once and notified at most once,
// regardless of how many runs see it.
type Pipeline struct {
	source     ports.CandidateSource
	fetcher    ports.TextFetcher
	repository ports.ArticleRepository
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		fetcher:    deps.Fetcher,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Run executes one full ingestion cycle and returns its summary.
// Transport failures for individual candidates are logged and skipped;
// storage failures abort the run.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	var report domain.Report

	scan, err := p.source.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("scan source: %w", err)
	}
	report.Links = scan.Found
	report.Matched = len(scan.Matched)

	for _, link := range scan.Matched {
		exists, err := p.repository.Exists(ctx, link)
		if err != nil {
			return report, fmt.Errorf("check %s: %w", link, err)
		}
		if exists {
			report.Skipped++
			continue
		}

		content, err := p.fetcher.Fetch(ctx, link)
		if err != nil {
			p.warn("fetch failed, skipping candidate", "url", link, "error", err)
			report.Errors++
			continue
		}

		inserted, err := p.repository.InsertIfNew(ctx, domain.Article{
			URL:         link,
			Title:       content.Title,
			Excerpt:     content.Excerpt,
			ArticleDate: content.Date,
			FetchedAt:   time.Now().UTC(),
			Status:      domain.StatusUnpublished,
		})
		if err != nil {
			return report, fmt.Errorf("store %s: %w", link, err)
		}
		if inserted {
			report.New++
		} else {
			report.Skipped++
		}
	}

	// The notification pass covers both this run's inserts and
	// unpublished leftovers from earlier runs, oldest first.
	pending, err := p.repository.ListUnpublished(ctx)
	if err != nil {
		return report, fmt.Errorf("list unpublished: %w", err)
	}

	for _, article := range pending {
		if err := p.notify(ctx, article); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			p.warn("notification failed, will retry next run", "url", article.URL, "error", err)
			report.Failed++
			continue
		}

		// The notification went out; a shutdown signal arriving during
		// the send must not leave the record unpublished, or the next
		// run would deliver it a second time.
		if err := p.repository.MarkPublished(context.WithoutCancel(ctx), article.URL); err != nil {
			return report, fmt.Errorf("mark published %s: %w", article.URL, err)
		}
		report.Sent++
	}

	p.info("pipeline run complete", "summary", report.String())
	return report, nil
}

// notify sends one article. A rate-limited send backs off for the
// server's retry_after and is retried once; articles are attempted
// independently, so a failure here never blocks the rest of the batch.
func (p *Pipeline) notify(ctx context.Context, article domain.Article) error {
	err := p.notifier.Send(ctx, article)

	var rateLimited *ports.RateLimitedError
	if !errors.As(err, &rateLimited) {
		return err
	}
	if rateLimited.RetryAfter > maxRateLimitWait {
		return err
	}

	p.info("rate limited, backing off", "url", article.URL, "retry_after", rateLimited.RetryAfter)
	select {
	case <-time.After(rateLimited.RetryAfter):
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.notifier.Send(ctx, article)
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
