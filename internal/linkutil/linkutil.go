// Package linkutil holds the small "analyse these links" / "filter
// these links" / "export these links" utilities the spec treats as thin
// adapters over the crawl engine's output rather than part of the core.
package linkutil

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/corvidlabs/crawlerd/internal/crawler"
)

// Analysis summarizes a set of LinkRecords without re-crawling anything.
type Analysis struct {
	Total            int                      `json:"total"`
	InternalCount    int                      `json:"internal_count"`
	ExternalCount    int                      `json:"external_count"`
	ByResourceType   crawler.Histogram        `json:"by_resource_type"`
	BySourceElement  crawler.Histogram        `json:"by_source_element"`
	MostCitedPages   []crawler.LinkTally      `json:"most_cited_pages"`
}

// Analyze computes per-category counts over links, ranking pages by how
// often they're cited via FoundOn.
func Analyze(links []crawler.LinkRecord) Analysis {
	a := Analysis{
		ByResourceType:  make(crawler.Histogram),
		BySourceElement: make(crawler.Histogram),
	}
	citations := make(map[string]int)

	for _, link := range links {
		a.Total++
		if link.Kind == "internal" {
			a.InternalCount++
		} else {
			a.ExternalCount++
		}
		a.ByResourceType.Add(link.ResourceType)
		a.BySourceElement.Add(link.SourceElement)
		for _, page := range link.FoundOn {
			citations[page]++
		}
	}

	tallies := make([]crawler.LinkTally, 0, len(citations))
	for k, v := range citations {
		tallies = append(tallies, crawler.LinkTally{Key: k, Count: v})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		return tallies[i].Key < tallies[j].Key
	})
	if len(tallies) > 10 {
		tallies = tallies[:10]
	}
	a.MostCitedPages = tallies

	return a
}

// Filter is a set of predicates applied conjunctively by FilterLinks.
type Filter struct {
	Kind         string // "internal", "external", or "" for both
	ResourceType string // exact match, or "" for any
	Contains     string // substring match against AbsoluteURL, case-insensitive
}

// FilterLinks returns the subset of links matching every non-zero field
// of f.
func FilterLinks(links []crawler.LinkRecord, f Filter) []crawler.LinkRecord {
	out := make([]crawler.LinkRecord, 0, len(links))
	needle := strings.ToLower(f.Contains)
	for _, link := range links {
		if f.Kind != "" && link.Kind != f.Kind {
			continue
		}
		if f.ResourceType != "" && link.ResourceType != f.ResourceType {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(link.AbsoluteURL), needle) {
			continue
		}
		out = append(out, link)
	}
	return out
}

// ExportJSON writes links to w as a JSON array.
func ExportJSON(w io.Writer, links []crawler.LinkRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(links)
}

// ExportCSV writes links to w as CSV with a header row.
func ExportCSV(w io.Writer, links []crawler.LinkRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"absolute_url", "kind", "resource_type", "source_element", "anchor_text", "found_on_count"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, link := range links {
		row := []string{
			link.AbsoluteURL,
			link.Kind,
			link.ResourceType,
			link.SourceElement,
			link.AnchorText,
			strconv.Itoa(len(link.FoundOn)),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}
