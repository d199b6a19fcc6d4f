package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// IndexSource implements CandidateSource over a single index page,
// reachable via http(s) or a local HTML file.
type IndexSource struct {
	source string
	filter *LinkFilter
	client *http.Client
	logger *slog.Logger
}

var _ ports.CandidateSource = (*IndexSource)(nil)

// NewIndexSource compiles the filter pattern and wires an HTTP client.
func NewIndexSource(source, pattern string, client *http.Client, logger *slog.Logger) (*IndexSource, error) {
	filter, err := NewLinkFilter(pattern)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &IndexSource{
		source: source,
		filter: filter,
		client: client,
		logger: logger,
	}, nil
}

// Scan fetches the index page, extracts its links, and filters them.
func (s *IndexSource) Scan(ctx context.Context) (domain.ScanResult, error) {
	body, base, err := s.open(ctx)
	if err != nil {
		return domain.ScanResult{}, err
	}
	defer body.Close()

	links, err := ExtractLinks(body, base)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("extract links from %s: %w", s.source, err)
	}

	matched := s.filter.Apply(links)
	s.debug("index scanned", "source", s.source, "links", len(links), "matched", len(matched))

	return domain.ScanResult{Found: len(links), Matched: matched}, nil
}

func (s *IndexSource) open(ctx context.Context) (io.ReadCloser, *url.URL, error) {
	if !isHTTP(s.source) {
		file, err := os.Open(s.source)
		if err != nil {
			return nil, nil, fmt.Errorf("open index %s: %w", s.source, err)
		}
		return file, nil, nil
	}

	base, err := url.Parse(s.source)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid index url %s: %w", s.source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsHarvester/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request index %s: %w", s.source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("index %s returned %s", s.source, resp.Status)
	}

	return resp.Body, base, nil
}

func (s *IndexSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
