package crawler

import (
	"sync"
	"sync/atomic"
	"time"
)

// frontierEntry is one not-yet-fetched (url, depth) pair.
type frontierEntry struct {
	url   string
	depth int
}

// Frontier is the bounded FIFO of frontier entries, the visited set that
// dedups against it, and the page-slot counting semaphore that bounds
// how many PageResults the scan may ever commit. All three are owned
// together because invariant 1 (a URL is enqueued at most once) and the
// page-cap invariant are only race-free if the check-and-insert on the
// visited set and the slot reservation share one lock's worth of
// ordering.
//
// The FIFO itself is a buffered channel, generalizing the teacher's
// workCh/WorkItem channel to carry depth; slots are a second buffered
// channel used purely as a counting semaphore, per the spec's resolved
// design note on the source's page-slot drift bug: acquire before a
// pop, release only on paths that never commit a PageResult.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	entries chan frontierEntry
	slots   chan struct{}
	active  atomic.Int64
}

// NewFrontier returns an empty Frontier with maxPages page slots. The
// entry queue is sized generously beyond maxPages: a page's outbound
// links are discovered and enqueued before the cap is known to have
// been hit, so many more URLs can be sitting in the frontier waiting
// their turn than will ever actually be fetched.
func NewFrontier(maxPages int) *Frontier {
	if maxPages < 1 {
		maxPages = 1
	}
	queueCap := maxPages * 50
	if queueCap < 1000 {
		queueCap = 1000
	}
	f := &Frontier{
		visited: make(map[string]struct{}, queueCap),
		entries: make(chan frontierEntry, queueCap),
		slots:   make(chan struct{}, maxPages),
	}
	for i := 0; i < maxPages; i++ {
		f.slots <- struct{}{}
	}
	return f
}

// TryEnqueue marks normalizedURL visited and appends (normalizedURL, depth)
// to the FIFO, atomically, iff normalizedURL was not already visited.
// Reports whether it enqueued.
func (f *Frontier) TryEnqueue(normalizedURL string, depth int) bool {
	f.mu.Lock()
	if _, seen := f.visited[normalizedURL]; seen {
		f.mu.Unlock()
		return false
	}
	f.visited[normalizedURL] = struct{}{}
	f.mu.Unlock()

	f.entries <- frontierEntry{url: normalizedURL, depth: depth}
	return true
}

// Pop waits up to timeout for a frontier entry. Returns ok=false on
// timeout.
func (f *Frontier) Pop(timeout time.Duration) (frontierEntry, bool) {
	select {
	case e := <-f.entries:
		return e, true
	case <-time.After(timeout):
		return frontierEntry{}, false
	}
}

// VisitedCount returns how many distinct URLs have ever been enqueued.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// QueueSize returns how many entries are currently waiting to be popped.
func (f *Frontier) QueueSize() int {
	return len(f.entries)
}

// AcquireSlot reserves one page slot, non-blocking. Reports whether a
// slot was available.
func (f *Frontier) AcquireSlot() bool {
	select {
	case <-f.slots:
		return true
	default:
		return false
	}
}

// ReleaseSlot returns a reserved slot to the pool. Must only be called
// on paths that reserved a slot but did not commit a PageResult for it
// (a pop timeout, or a post-pop rejection) — never on a path that did
// commit a result, or the semaphore would drift above maxPages.
func (f *Frontier) ReleaseSlot() {
	select {
	case f.slots <- struct{}{}:
	default:
		// Pool already full; a symmetric caller should never hit this,
		// but dropping the release is safer than blocking or panicking.
	}
}

// SlotsAvailable reports whether any page slot remains.
func (f *Frontier) SlotsAvailable() bool {
	return len(f.slots) > 0
}

// EnterActive marks one worker as currently processing a popped entry
// (between a successful Pop and the result being handed to the
// controller). Used to distinguish "frontier momentarily empty" from
// "frontier genuinely drained with nothing left to produce more work."
func (f *Frontier) EnterActive() {
	f.active.Add(1)
}

// ExitActive is the matching release for EnterActive.
func (f *Frontier) ExitActive() {
	f.active.Add(-1)
}

// Idle reports whether the frontier has no queued entries and no worker
// is currently processing one.
func (f *Frontier) Idle() bool {
	return f.QueueSize() == 0 && f.active.Load() == 0
}
