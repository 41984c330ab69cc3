package crawler

import (
	"net/url"
	"sort"
	"time"
)

// CompletionStatus is one of the five terminal states a scan can report,
// evaluated in the controller in strict precedence order.
type CompletionStatus string

const (
	StatusUserCancelled   CompletionStatus = "user_cancelled"
	StatusTimeoutExceeded CompletionStatus = "timeout_exceeded"
	StatusMaxPagesReached CompletionStatus = "max_pages_reached"
	StatusQueueEmpty      CompletionStatus = "queue_empty"
	StatusCompleted       CompletionStatus = "completed"
)

// Report is the stats compiler's full output: a deterministic pure
// function of the controller's final state, assembled exactly once at
// scan end.
type Report struct {
	ScanID           string
	Domain           string
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	CompletionStatus CompletionStatus
	TimedOut         bool

	PagesFetched   int
	ErrorPages     int
	TimeoutPages   int
	AvgResponseMs  float64

	LinksTotal          int
	LinksInternalUnique int
	LinksExternalUnique int
	LinksByResourceType Histogram
	LinksInternalByType Histogram
	LinksExternalByType Histogram

	StatusCodeCounts Histogram
	StatusCategories Histogram
	ContentTypes     Histogram
	RedirectLengths  Histogram

	DevicePages     Histogram
	DepthCounts     Histogram

	WorkerSummaries []WorkerStats

	TopInternalPages []LinkTally
	TopExternalHosts []LinkTally

	DetailedResults []PageResult
	UniqueLinks     []LinkRecord

	Config *ScanJob
}

// LinkTally is one entry of a top-N ranking: a key (a URL or a host)
// paired with how many times it was cited.
type LinkTally struct {
	Key   string
	Count int
}

// CompileReport assembles the final Report from the job's configuration,
// the aggregator's accumulated state, and the per-worker stats gathered
// after every worker has exited. It performs no I/O and mutates nothing
// it is handed.
func CompileReport(job *ScanJob, snap aggregatorSnapshot, workers []WorkerStats, status CompletionStatus, timedOut bool, endTime time.Time) Report {
	report := Report{
		ScanID:           job.ScanID,
		Domain:           job.BaseHost,
		StartTime:        job.StartTime,
		EndTime:          endTime,
		Duration:         endTime.Sub(job.StartTime),
		CompletionStatus: status,
		TimedOut:         timedOut,

		PagesFetched: len(snap.results),

		LinksByResourceType: newHistogramFrom(snap.internalTypes, snap.externalTypes),
		LinksInternalByType: snap.internalTypes,
		LinksExternalByType: snap.externalTypes,

		StatusCodeCounts: snap.statusCodes,
		StatusCategories: snap.statusCats,
		ContentTypes:     snap.contentTypes,
		RedirectLengths:  snap.redirectLens,

		DevicePages: snap.devicePages,
		DepthCounts: snap.depthCounts,

		WorkerSummaries: workers,

		DetailedResults: snap.results,
		UniqueLinks:     snap.links,

		Config: job,
	}

	var totalMs float64
	for _, r := range snap.results {
		if !r.Success {
			report.ErrorPages++
		}
		if r.TimeoutExceeded {
			report.TimeoutPages++
		}
		totalMs += float64(r.ProcessingTime.Milliseconds())
	}
	if len(snap.results) > 0 {
		report.AvgResponseMs = totalMs / float64(len(snap.results))
	}

	report.LinksTotal = len(snap.links)
	for _, link := range snap.links {
		if link.Kind == "internal" {
			report.LinksInternalUnique++
		} else {
			report.LinksExternalUnique++
		}
	}

	report.TopInternalPages = topCitedInternalPages(snap.links, 10)
	report.TopExternalHosts = topExternalHosts(snap.links, 10)

	return report
}

func newHistogramFrom(parts ...Histogram) Histogram {
	merged := make(Histogram)
	for _, h := range parts {
		for k, v := range h {
			merged[k] += v
		}
	}
	return merged
}

// topCitedInternalPages ranks distinct page URLs by how many LinkRecords
// cite them via found_on, descending by count then ascending by key.
func topCitedInternalPages(links []LinkRecord, n int) []LinkTally {
	citations := make(map[string]int)
	for _, link := range links {
		if link.Kind != "internal" {
			continue
		}
		for _, page := range link.FoundOn {
			citations[page]++
		}
	}
	return topN(citations, n)
}

// topExternalHosts ranks external link hosts by distinct-link count.
func topExternalHosts(links []LinkRecord, n int) []LinkTally {
	counts := make(map[string]int)
	for _, link := range links {
		if link.Kind != "external" {
			continue
		}
		host := hostOf(link.AbsoluteURL)
		if host == "" {
			continue
		}
		counts[host]++
	}
	return topN(counts, n)
}

func topN(counts map[string]int, n int) []LinkTally {
	tallies := make([]LinkTally, 0, len(counts))
	for k, v := range counts {
		tallies = append(tallies, LinkTally{Key: k, Count: v})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		return tallies[i].Key < tallies[j].Key
	})
	if len(tallies) > n {
		tallies = tallies[:n]
	}
	return tallies
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
