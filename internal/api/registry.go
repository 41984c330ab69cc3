// Package api is the thin HTTP adapter over the crawl engine: the
// start/control/progress/status endpoints, request decoding, and
// response serialization. None of the scheduling logic lives here —
// it only ever talks to internal/crawler's exported types.
package api

import (
	"sync"

	"github.com/corvidlabs/crawlerd/internal/crawler"
)

// scanEntry is what the registry keeps per active scan: the controller
// handle plus whatever the handlers need to answer a progress or status
// query without re-deriving it.
type scanEntry struct {
	controller *crawler.Controller
	job        *crawler.ScanJob
}

// Registry is the process-wide `scan_id -> controller handle` map the
// design notes call for. Keyed insertion on scan start, removal once a
// scan's report has been compiled and returned, guarded by a single lock
// since contention is low. The number of concurrent scans is not capped.
type Registry struct {
	mu    sync.Mutex
	scans map[string]*scanEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scans: make(map[string]*scanEntry)}
}

// Put registers an active scan under its scan ID.
func (r *Registry) Put(job *crawler.ScanJob, ctrl *crawler.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[job.ScanID] = &scanEntry{controller: ctrl, job: job}
}

// Get looks up an active scan by ID.
func (r *Registry) Get(scanID string) (*crawler.Controller, *crawler.ScanJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.scans[scanID]
	if !ok {
		return nil, nil, false
	}
	return entry.controller, entry.job, true
}

// Remove deregisters a scan, called once its report has been produced.
func (r *Registry) Remove(scanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scans, scanID)
}

// Count returns how many scans are currently active.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scans)
}
