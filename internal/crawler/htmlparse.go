package crawler

import (
	"bytes"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// titleParseBudget bounds how much of a document's body is read to
	// find its title, independent of the full-document parse link
	// extraction needs.
	titleParseBudget = 5000
	// titleMaxLen caps the extracted title's length.
	titleMaxLen = 200
	// extractBudget is the wall-clock ceiling on the link-extraction
	// loop; a pathologically large or selector-heavy document is
	// truncated rather than allowed to stall a worker indefinitely.
	extractBudget = 5 * time.Second
)

// sourceSelectors maps each element/attribute pair the crawler follows
// to the element name recorded against every DiscoveredLink it yields.
// Folds the source's single a[href]-only node walk into the selector
// set a documentation crawler needs: stylesheets, scripts, images, and
// frames all matter for a full resource inventory, not just anchors.
var sourceSelectors = []struct {
	selector string
	attr     string
	element  string
}{
	{"a[href]", "href", "a"},
	{"link[href]", "href", "link"},
	{"script[src]", "src", "script"},
	{"img[src]", "src", "img"},
	{"iframe[src]", "src", "iframe"},
}

// ParsedPage is what ExtractPage pulls out of one HTML document.
type ParsedPage struct {
	Title string
	Links []DiscoveredLink
}

// ExtractPage parses an HTML document body and returns its title and
// every discovered link, already absolutized against base and
// classified by resource type and in/out-of-scope kind. baseHost is
// the scan's start host, used to tag each link's Kind.
func ExtractPage(body []byte, base *url.URL, baseHost string) (ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ParsedPage{}, err
	}

	page := ParsedPage{
		Title: extractTitle(body),
	}

	deadline := time.Now().Add(extractBudget)
	seen := make(map[string]struct{})
selectorLoop:
	for _, sel := range sourceSelectors {
		if time.Now().After(deadline) {
			log.Printf("link extraction for %s exceeded %s budget, truncating (already-found links kept)", base, extractBudget)
			break selectorLoop
		}

		truncated := false
		doc.Find(sel.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if time.Now().After(deadline) {
				truncated = true
				return false
			}

			raw, ok := s.Attr(sel.attr)
			if !ok {
				return true
			}
			abs, ok := Absolutize(base, raw)
			if !ok {
				return true
			}
			dedupeKey := sel.element + "|" + abs
			if _, dup := seen[dedupeKey]; dup {
				return true
			}
			seen[dedupeKey] = struct{}{}

			absURL, err := url.Parse(abs)
			kind := "external"
			if err == nil && strings.EqualFold(absURL.Host, baseHost) {
				kind = "internal"
			}

			anchorText := ""
			if sel.element == "a" {
				anchorText = strings.TrimSpace(s.Text())
			}

			page.Links = append(page.Links, DiscoveredLink{
				AbsoluteURL:   abs,
				Kind:          kind,
				ResourceType:  ClassifyByExtension(pathOf(abs)),
				SourceElement: sel.element,
				AnchorText:    anchorText,
			})
			return true
		})
		if truncated {
			log.Printf("link extraction for %s exceeded %s budget mid-selector, truncating (already-found links kept)", base, extractBudget)
			break selectorLoop
		}
	}

	return page, nil
}

// extractTitle reads only the first titleParseBudget bytes of body to
// bound parse cost, and caps the result at titleMaxLen.
func extractTitle(body []byte) string {
	head := body
	if len(head) > titleParseBudget {
		head = head[:titleParseBudget]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(head))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return truncate(title, titleMaxLen)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
