package parser

import (
	"net/url"
	"strings"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <a href="/2025/01/first">First</a>
	  <a href="https://other.example.org/page">Absolute</a>
	  <a href="/2025/01/first">Duplicate</a>
	  <a href="#section">Fragment</a>
	  <a href="javascript:void(0)">Script</a>
	  <a href="  /spaced  ">Spaced</a>
	</body></html>`

	base, err := url.Parse("https://news.example.com/category/ai/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	links, err := ExtractLinks(strings.NewReader(html), base)
	if err != nil {
		t.Fatalf("ExtractLinks returned error: %v", err)
	}

	want := []string{
		"https://news.example.com/2025/01/first",
		"https://other.example.org/page",
		"https://news.example.com/spaced",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i, link := range want {
		if links[i] != link {
			t.Fatalf("link %d: expected %s, got %s", i, link, links[i])
		}
	}
}

func TestExtractLinksNoBase(t *testing.T) {
	t.Parallel()

	html := `<a href="/relative/path">x</a>`
	links, err := ExtractLinks(strings.NewReader(html), nil)
	if err != nil {
		t.Fatalf("ExtractLinks returned error: %v", err)
	}
	if len(links) != 1 || links[0] != "/relative/path" {
		t.Fatalf("expected raw relative link, got %v", links)
	}
}

func TestLinkFilterPattern(t *testing.T) {
	t.Parallel()

	filter, err := NewLinkFilter("*/2025/*")
	if err != nil {
		t.Fatalf("NewLinkFilter returned error: %v", err)
	}

	matched := filter.Apply([]string{"/2025/a", "/2024/b", "/2025/c"})
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(matched), matched)
	}
	if matched[0] != "/2025/a" || matched[1] != "/2025/c" {
		t.Fatalf("unexpected matches: %v", matched)
	}
}

func TestLinkFilterCaseSensitive(t *testing.T) {
	t.Parallel()

	filter, err := NewLinkFilter("*/News/*")
	if err != nil {
		t.Fatalf("NewLinkFilter returned error: %v", err)
	}

	if filter.Match("https://example.com/news/story") {
		t.Fatal("lowercase path must not match uppercase pattern")
	}
	if !filter.Match("https://example.com/News/story") {
		t.Fatal("exact-case path must match")
	}
}

func TestLinkFilterSingleChar(t *testing.T) {
	t.Parallel()

	filter, err := NewLinkFilter("/20?5/*")
	if err != nil {
		t.Fatalf("NewLinkFilter returned error: %v", err)
	}

	if !filter.Match("/2015/x") || !filter.Match("/2025/y") {
		t.Fatal("? must match exactly one character")
	}
	if filter.Match("/20105/z") {
		t.Fatal("? must not match two characters")
	}
}

func TestLinkFilterInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := NewLinkFilter("[unclosed"); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
