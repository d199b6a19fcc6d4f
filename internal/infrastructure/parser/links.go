package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gobwas/glob"
)

// ExtractLinks returns all hyperlink targets found in the document,
// resolved against base when one is given. Order is preserved and
// duplicates are dropped.
func ExtractLinks(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	seen := map[string]struct{}{}
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}

		if base != nil {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			href = base.ResolveReference(ref).String()
		}

		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})

	return links, nil
}

// LinkFilter matches candidate URLs against a glob pattern.
// Matching is case-sensitive; `*` spans any run of characters.
type LinkFilter struct {
	pattern string
	matcher glob.Glob
}

// NewLinkFilter compiles the pattern once for reuse across runs.
func NewLinkFilter(pattern string) (*LinkFilter, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &LinkFilter{pattern: pattern, matcher: matcher}, nil
}

// Match reports whether a single link satisfies the pattern.
func (f *LinkFilter) Match(link string) bool {
	return f.matcher.Match(link)
}

// Apply keeps only the links that satisfy the pattern.
func (f *LinkFilter) Apply(links []string) []string {
	matched := make([]string, 0, len(links))
	for _, link := range links {
		if f.matcher.Match(link) {
			matched = append(matched, link)
		}
	}
	return matched
}
