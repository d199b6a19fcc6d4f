package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

const excerptLimit = 500

var redundantNewLines = regexp.MustCompile(`\n{3,}`)

// TextFetcher retrieves a page from an http(s) URL or a local file and
// reduces it to readable text.
type TextFetcher struct {
	client *http.Client
}

var _ ports.TextFetcher = (*TextFetcher)(nil)

// NewTextFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewTextFetcher(client *http.Client) *TextFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TextFetcher{client: client}
}

// Fetch downloads or reads the source and extracts headline, body text,
// a bounded excerpt, and the page date when one is present.
func (f *TextFetcher) Fetch(ctx context.Context, source string) (domain.PageContent, error) {
	var content domain.PageContent

	var pageURL *url.URL
	if isHTTP(source) {
		parsed, err := url.Parse(source)
		if err != nil {
			return content, fmt.Errorf("invalid url %s: %w", source, err)
		}
		pageURL = parsed
	}

	body, err := f.open(ctx, source)
	if err != nil {
		return content, err
	}
	defer body.Close()

	article, err := readability.FromReader(body, pageURL)
	if err != nil {
		return content, fmt.Errorf("extract text from %s: %w", source, err)
	}

	text := cleanupText(article.TextContent)
	content = domain.PageContent{
		Title:   strings.TrimSpace(article.Title),
		Body:    text,
		Excerpt: truncateRunes(text, excerptLimit),
	}
	if article.PublishedTime != nil {
		content.Date = article.PublishedTime.Format("2006-01-02")
	}

	if content.Title == "" && content.Body == "" {
		return domain.PageContent{}, fmt.Errorf("no readable content in %s", source)
	}

	return content, nil
}

func (f *TextFetcher) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isHTTP(source) {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open file %s: %w", source, err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsHarvester/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", source, resp.Status)
	}

	return resp.Body, nil
}

func isHTTP(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func cleanupText(text string) string {
	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n\n"))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
