package crawler

import (
	"context"
	"sync"
	"testing"
	"time"
)

// siteFetcher serves a fixed map of pages, recording (under a mutex)
// every URL it was asked to fetch so tests can assert on scope.
type siteFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
	delay   time.Duration
}

func (s *siteFetcher) Fetch(ctx context.Context, rawURL string, device Device) (*FetchResult, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, rawURL)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	body, ok := s.pages[rawURL]
	if !ok {
		return nil, &HTTPError{StatusCode: 404, URL: rawURL}
	}
	return &FetchResult{Body: []byte(body), StatusCode: 200, ContentType: "text/html"}, nil
}

func (s *siteFetcher) fetchedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.fetched))
	copy(out, s.fetched)
	return out
}

func testJob(seed string, maxPages, maxDepth, workers int) *ScanJob {
	return &ScanJob{
		ScanID:            "scan_test",
		SeedURL:           seed,
		BaseHost:          "example.com",
		MaxPages:          maxPages,
		MaxDepth:          maxDepth,
		NumWorkers:        workers,
		GlobalDeadline:    5 * time.Second,
		PerRequestTimeout: time.Second,
		QueueTimeout:      30 * time.Millisecond,
		GracePeriod:       50 * time.Millisecond,
		StartTime:         time.Now(),
	}
}

func TestController_Run_SinglePageQueueEmpty(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/": `<html><head><title>Home</title></head><body>no links here</body></html>`,
	}}
	job := testJob("https://example.com/", 10, 3, 2)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	if report.CompletionStatus != StatusQueueEmpty {
		t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusQueueEmpty)
	}
	if report.PagesFetched != 1 {
		t.Errorf("PagesFetched = %d, want 1", report.PagesFetched)
	}
}

func TestController_Run_FollowsInScopeLinksAndDedupes(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/":      `<a href="/about">About</a><a href="/contact">Contact</a><a href="/">Home again</a>`,
		"https://example.com/about": `<a href="/contact">Contact</a>`,
		"https://example.com/contact": `no links`,
	}}
	job := testJob("https://example.com/", 10, 3, 2)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	if report.PagesFetched != 3 {
		t.Errorf("PagesFetched = %d, want 3 (dedup across self-link and repeat citation)", report.PagesFetched)
	}
	if report.CompletionStatus != StatusQueueEmpty {
		t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusQueueEmpty)
	}

	fetched := fetcher.fetchedURLs()
	counts := make(map[string]int)
	for _, u := range fetched {
		counts[u]++
	}
	if counts["https://example.com/"] != 1 {
		t.Errorf("https://example.com/ fetched %d times, want exactly 1", counts["https://example.com/"])
	}
}

func TestController_Run_DoesNotFetchExternalLinks(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/": `<a href="https://other.com/page">Other site</a>`,
	}}
	job := testJob("https://example.com/", 10, 3, 2)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	if report.PagesFetched != 1 {
		t.Errorf("PagesFetched = %d, want 1 (external link must not be fetched)", report.PagesFetched)
	}
	for _, u := range fetcher.fetchedURLs() {
		if u == "https://other.com/page" {
			t.Error("controller fetched an out-of-scope external URL")
		}
	}
	if report.LinksExternalUnique != 1 {
		t.Errorf("LinksExternalUnique = %d, want 1 (still recorded, just not fetched)", report.LinksExternalUnique)
	}
}

func TestController_Run_RespectsMaxPages(t *testing.T) {
	pages := map[string]string{}
	pages["https://example.com/p0"] = `<a href="/p1">n</a>`
	for i := 1; i < 20; i++ {
		pages[urlFor(i)] = linkTo(i + 1)
	}
	fetcher := &siteFetcher{pages: pages}
	job := testJob("https://example.com/p0", 5, 20, 2)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	if report.PagesFetched > job.MaxPages {
		t.Errorf("PagesFetched = %d, must not exceed MaxPages = %d", report.PagesFetched, job.MaxPages)
	}
	if report.CompletionStatus != StatusMaxPagesReached {
		t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusMaxPagesReached)
	}
}

func urlFor(i int) string {
	if i == 0 {
		return "https://example.com/p0"
	}
	return "https://example.com/p" + itoaHelper(i)
}

func linkTo(i int) string {
	return `<a href="/p` + itoaHelper(i) + `">next</a>`
}

func itoaHelper(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestController_Run_RespectsMaxDepth(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/":  `<a href="/d1">d1</a>`,
		"https://example.com/d1": `<a href="/d2">d2</a>`,
		"https://example.com/d2": `<a href="/d3">d3</a>`,
	}}
	job := testJob("https://example.com/", 10, 1, 2)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	fetched := make(map[string]bool)
	for _, u := range fetcher.fetchedURLs() {
		fetched[u] = true
	}
	if !fetched["https://example.com/"] || !fetched["https://example.com/d1"] {
		t.Errorf("expected depths 0 and 1 fetched, got %v", fetched)
	}
	if fetched["https://example.com/d2"] {
		t.Error("d2 is at depth 2, beyond max_depth=1, and should not have been fetched")
	}
}

func TestController_Run_StopMidFlightReportsUserCancelled(t *testing.T) {
	fetcher := &siteFetcher{
		pages: map[string]string{"https://example.com/": `no links`},
		delay: 200 * time.Millisecond,
	}
	job := testJob("https://example.com/", 10, 3, 1)
	c := NewController(job, fetcher)

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Stop()
	}()

	report := c.Run(context.Background())

	if report.CompletionStatus != StatusUserCancelled {
		t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusUserCancelled)
	}
}

func TestController_Run_GlobalTimeoutReportsTimeoutExceeded(t *testing.T) {
	fetcher := &siteFetcher{
		pages: map[string]string{"https://example.com/": `no links`},
		delay: time.Second,
	}
	job := testJob("https://example.com/", 10, 3, 1)
	job.GlobalDeadline = 30 * time.Millisecond
	job.PerRequestTimeout = 5 * time.Second
	c := NewController(job, fetcher)

	report := c.Run(context.Background())

	if report.CompletionStatus != StatusTimeoutExceeded {
		t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusTimeoutExceeded)
	}
	if !report.TimedOut {
		t.Error("TimedOut should be true")
	}
}

func TestController_PauseResume_BlocksThenReleasesWorkers(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/":  `<a href="/a">a</a>`,
		"https://example.com/a": `no links`,
	}}
	job := testJob("https://example.com/", 10, 3, 1)
	c := NewController(job, fetcher)

	c.Pause()
	if !c.IsPaused() {
		t.Fatal("IsPaused() should report true immediately after Pause()")
	}

	done := make(chan Report, 1)
	go func() { done <- c.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Run() completed while paused; workers should have been blocked")
	default:
	}

	c.Resume()
	if c.IsPaused() {
		t.Fatal("IsPaused() should report false after Resume()")
	}

	select {
	case report := <-done:
		if report.CompletionStatus != StatusQueueEmpty {
			t.Errorf("CompletionStatus = %q, want %q", report.CompletionStatus, StatusQueueEmpty)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not complete after Resume()")
	}
}

func TestController_Progress_ReflectsFrontierState(t *testing.T) {
	fetcher := &siteFetcher{pages: map[string]string{
		"https://example.com/": `no links`,
	}}
	job := testJob("https://example.com/", 10, 3, 1)
	c := NewController(job, fetcher)

	report := c.Run(context.Background())
	if report.PagesFetched != 1 {
		t.Fatalf("PagesFetched = %d, want 1", report.PagesFetched)
	}

	progress := c.Progress()
	if progress.Total != 1 {
		t.Errorf("Progress.Total = %d, want 1", progress.Total)
	}
	if progress.Max != 10 {
		t.Errorf("Progress.Max = %d, want 10", progress.Max)
	}
}
