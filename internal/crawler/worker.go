package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// worker is one goroutine of the scan's fixed pool. It owns its Device
// fingerprint and its WorkerStats exclusively (the Fetcher is the one
// the controller hands to every worker of the scan): no other goroutine
// ever writes to the stats it reports, so it needs no locking of its own
// (the teacher's worker is stateless per call; this one accumulates
// per-worker totals across calls, matching the spec's per-worker stats
// requirement, and the controller reads a copy via Stats once every
// worker has exited).
type worker struct {
	id       int
	device   Device
	fetcher  Fetcher
	frontier *Frontier
	gate     *PauseGate
	baseHost string
	maxDepth int

	stopped func() bool

	stats WorkerStats
}

// newWorker constructs a worker bound to frontier and fetcher, presenting
// device, enforcing maxDepth, and checking stopped before every dispatch
// to honor an in-flight stop request without waiting for the pause gate.
func newWorker(id int, fetcher Fetcher, frontier *Frontier, gate *PauseGate, baseHost string, maxDepth int, stopped func() bool) *worker {
	device := DeviceForWorker(id)
	return &worker{
		id:       id,
		device:   device,
		fetcher:  fetcher,
		frontier: frontier,
		gate:     gate,
		baseHost: baseHost,
		maxDepth: maxDepth,
		stopped:  stopped,
		stats:    WorkerStats{WorkerID: id, DeviceID: device.ID},
	}
}

// run pulls frontier entries and processes them until ctx is done, the
// scan is stopped, or no page slot is left to reserve. A pop that times
// out after popTimeout releases its slot and the worker asks again (the
// controller is responsible for deciding when "no more work" means the
// scan is complete). Every PageResult, with its discovered links, is
// sent on results; run never closes that channel.
func (w *worker) run(ctx context.Context, popTimeout time.Duration, results chan<- PageResult, done func()) {
	defer done()

	for {
		if ctx.Err() != nil || w.stopped() {
			return
		}

		w.gate.WaitUnlessStopped(w.stopped)
		if w.stopped() {
			return
		}

		if !w.frontier.AcquireSlot() {
			return
		}

		entry, ok := w.frontier.Pop(popTimeout)
		if !ok {
			w.frontier.ReleaseSlot()
			if ctx.Err() != nil || w.stopped() {
				return
			}
			continue
		}

		w.frontier.EnterActive()
		result := w.process(ctx, entry)
		w.frontier.ExitActive()
		w.stats.PagesProcessed++
		w.stats.LinksFound += int64(len(result.Links))
		w.stats.TotalBytes += int64(result.PageSizeBytes)
		w.stats.TotalTime += result.ProcessingTime
		if !result.Success {
			w.stats.Errors++
			if result.TimeoutExceeded {
				w.stats.TimeoutErrors++
			}
		}

		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}

// process fetches and parses one frontier entry, always returning a
// PageResult — errors are carried in the result, never returned, so the
// controller sees exactly one outcome per dispatched URL regardless of
// what went wrong.
func (w *worker) process(ctx context.Context, entry frontierEntry) PageResult {
	start := time.Now()
	base := PageResult{
		URL:      entry.url,
		Depth:    entry.depth,
		DeviceID: w.device.ID,
		WorkerID: w.id,
	}

	fetchResult, err := w.fetcher.Fetch(ctx, entry.url, w.device)
	base.ProcessingTime = time.Since(start)
	if err != nil {
		base.Error = err.Error()
		base.ErrorKind, base.TimeoutExceeded = classifyFetchErr(ctx, err)
		if httpErr, ok := err.(*HTTPError); ok {
			base.StatusCode = httpErr.StatusCode
		} else if base.ErrorKind == ErrKindTimeout {
			base.StatusCode = 408
		}
		return base
	}

	base.StatusCode = fetchResult.StatusCode
	base.ContentType = fetchResult.ContentType
	base.PageSizeBytes = len(fetchResult.Body)
	base.RedirectChain = fetchResult.RedirectChain
	base.PageType = PageType(fetchResult.ContentType, entry.url)

	if base.PageType != "html" || entry.depth >= w.maxDepth {
		base.Success = true
		return base
	}

	baseURL, err := url.Parse(entry.url)
	if err != nil {
		base.Error = fmt.Sprintf("parsing base url: %v", err)
		base.ErrorKind = ErrKindParse
		return base
	}

	page, err := ExtractPage(fetchResult.Body, baseURL, w.baseHost)
	if err != nil {
		base.Error = fmt.Sprintf("parsing html: %v", err)
		base.ErrorKind = ErrKindParse
		return base
	}

	base.Success = true
	base.Title = page.Title
	base.Links = page.Links
	return base
}

// classifyFetchErr turns a Fetch error into an ErrorKind plus whether it
// represents a deadline the scan should count as a timeout rather than
// an ordinary transport failure.
func classifyFetchErr(ctx context.Context, err error) (ErrorKind, bool) {
	if httpErr, ok := err.(*HTTPError); ok {
		if httpErr.StatusCode == 504 || httpErr.StatusCode == 408 {
			return ErrKindTimeout, true
		}
		return ErrKindHTTPError, false
	}
	if ctx.Err() != nil {
		return ErrKindTimeout, true
	}
	return ErrKindTransport, false
}

// Stats returns a snapshot of the worker's cumulative counters.
func (w *worker) Stats() WorkerStats {
	return w.stats
}
