package crawler

import (
	"net/url"
	"strings"
	"testing"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}
	return u
}

func TestExtractPage_Title(t *testing.T) {
	html := `<html><head><title>  Welcome Home  </title></head><body></body></html>`
	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}
	if page.Title != "Welcome Home" {
		t.Errorf("Title = %q, want %q", page.Title, "Welcome Home")
	}
}

func TestExtractPage_TitleTruncatedTo200Chars(t *testing.T) {
	longTitle := strings.Repeat("x", 250)
	html := `<html><head><title>` + longTitle + `</title></head><body></body></html>`
	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}
	if len(page.Title) != 200 {
		t.Errorf("len(Title) = %d, want 200", len(page.Title))
	}
}

func TestExtractPage_TitleReadFromFirst5KB(t *testing.T) {
	padding := strings.Repeat("a", 6000)
	html := `<html><body>` + padding + `</body><title>Too Late</title></html>`
	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}
	if page.Title != "" {
		t.Errorf("Title = %q, want empty since the <title> falls past the 5KB parse budget", page.Title)
	}
}

func TestExtractPage_CollectsAllSourceElements(t *testing.T) {
	html := `<html><head>
		<link rel="stylesheet" href="/style.css">
	</head><body>
		<a href="/about">About</a>
		<script src="/app.js"></script>
		<img src="/logo.png">
		<iframe src="/embed"></iframe>
	</body></html>`

	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}

	bySource := make(map[string]DiscoveredLink)
	for _, link := range page.Links {
		bySource[link.SourceElement] = link
	}

	wantElements := []string{"a", "link", "script", "img", "iframe"}
	for _, el := range wantElements {
		if _, ok := bySource[el]; !ok {
			t.Errorf("missing link discovered via %q element", el)
		}
	}
	if bySource["a"].AbsoluteURL != "https://example.com/about" {
		t.Errorf("a link = %q, want https://example.com/about", bySource["a"].AbsoluteURL)
	}
}

func TestExtractPage_ClassifiesInternalVsExternal(t *testing.T) {
	html := `<html><body>
		<a href="/local">Local</a>
		<a href="https://other.com/remote">Remote</a>
	</body></html>`

	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}

	kinds := make(map[string]string)
	for _, link := range page.Links {
		kinds[link.AbsoluteURL] = link.Kind
	}
	if kinds["https://example.com/local"] != "internal" {
		t.Errorf("local link kind = %q, want internal", kinds["https://example.com/local"])
	}
	if kinds["https://other.com/remote"] != "external" {
		t.Errorf("remote link kind = %q, want external", kinds["https://other.com/remote"])
	}
}

func TestExtractPage_DeduplicatesRepeatedHrefs(t *testing.T) {
	html := `<html><body>
		<a href="/page">First</a>
		<a href="/page">Second</a>
	</body></html>`

	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}
	if len(page.Links) != 1 {
		t.Errorf("len(Links) = %d, want 1 (deduplicated)", len(page.Links))
	}
}

func TestExtractPage_RejectsNonLinkHrefs(t *testing.T) {
	html := `<html><body>
		<a href="#section">Fragment</a>
		<a href="mailto:test@example.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="/valid">Valid</a>
	</body></html>`

	page, err := ExtractPage([]byte(html), mustParseURL(t, "https://example.com/"), "example.com")
	if err != nil {
		t.Fatalf("ExtractPage error = %v", err)
	}
	if len(page.Links) != 1 {
		t.Fatalf("len(Links) = %d, want 1, got %+v", len(page.Links), page.Links)
	}
	if page.Links[0].AbsoluteURL != "https://example.com/valid" {
		t.Errorf("surviving link = %q, want https://example.com/valid", page.Links[0].AbsoluteURL)
	}
}
