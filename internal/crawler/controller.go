package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Controller is the scan's single coordinator: it owns the frontier, the
// pause gate, the stop/deadline flags, and the aggregator, and it is the
// only goroutine that ever enqueues a new frontier entry. Generalizes
// the teacher's Coordinator (visited map + workCh + resultsCh +
// processResults loop) to the spec's dual-deadline, pausable,
// page-slot-bounded scheduling model.
type Controller struct {
	job      *ScanJob
	fetcher  Fetcher
	frontier *Frontier
	gate     *PauseGate
	agg      *aggregator

	stopRequested  atomic.Bool
	userCancelled  atomic.Bool
	timeoutFired   atomic.Bool
	maxPagesHit    atomic.Bool
	queueDrained   atomic.Bool
}

// NewController builds a Controller for job, fetching through fetcher.
func NewController(job *ScanJob, fetcher Fetcher) *Controller {
	return &Controller{
		job:      job,
		fetcher:  fetcher,
		frontier: NewFrontier(job.MaxPages),
		gate:     NewPauseGate(),
		agg:      newAggregator(),
	}
}

// Pause pauses every worker at its next suspension point.
func (c *Controller) Pause() { c.gate.Pause() }

// Resume releases a paused scan.
func (c *Controller) Resume() { c.gate.Resume() }

// Stop requests the scan terminate as soon as workers observe the flag.
// Irreversible: once set, Resume has no further effect.
func (c *Controller) Stop() {
	c.userCancelled.Store(true)
	c.stopRequested.Store(true)
	c.gate.Broadcast()
}

// IsPaused reports the gate's current state.
func (c *Controller) IsPaused() bool { return c.gate.IsPaused() }

// Progress is a point-in-time snapshot for the progress endpoint.
type Progress struct {
	Total            int
	Max              int
	QueueSize        int
	Visited          int
	UniqueLinks      int
	ElapsedTime      time.Duration
	RemainingTime    time.Duration
	Percentage       float64
	TimedOut         bool
	IsPaused         bool
	ShutdownRequested bool
}

// Progress returns the scan's current state without blocking on
// completion.
func (c *Controller) Progress() Progress {
	elapsed := time.Since(c.job.StartTime)
	remaining := c.job.GlobalDeadline - elapsed
	if remaining < 0 {
		remaining = 0
	}
	total := c.agg.ResultCount()
	pct := 0.0
	if c.job.MaxPages > 0 {
		pct = (float64(total) / float64(c.job.MaxPages)) * 100
		if pct > 100 {
			pct = 100
		}
	}
	return Progress{
		Total:             total,
		Max:               c.job.MaxPages,
		QueueSize:         c.frontier.QueueSize(),
		Visited:           c.frontier.VisitedCount(),
		UniqueLinks:       c.agg.LinkCount(),
		ElapsedTime:       elapsed,
		RemainingTime:     remaining,
		Percentage:        pct,
		TimedOut:          c.timeoutFired.Load(),
		IsPaused:          c.gate.IsPaused(),
		ShutdownRequested: c.stopRequested.Load(),
	}
}

// Run seeds the frontier with the scan's seed URL, launches the worker
// pool, drives discovery off their results, and blocks until the scan
// reaches a terminal condition. Returns the final report.
func (c *Controller) Run(ctx context.Context) Report {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.frontier.TryEnqueue(c.job.SeedURL, 0)

	resultsCh := make(chan PageResult, c.job.NumWorkers*2)
	workers := make([]*worker, c.job.NumWorkers)
	var wg sync.WaitGroup
	for i := 0; i < c.job.NumWorkers; i++ {
		w := newWorker(i, c.fetcher, c.frontier, c.gate, c.job.BaseHost, c.job.MaxDepth, c.stopRequested.Load)
		workers[i] = w
		wg.Add(1)
		go w.run(runCtx, c.job.QueueTimeout, resultsCh, wg.Done)
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()
	go func() {
		<-workersDone
		close(resultsCh)
	}()

	deadlineTimer := time.AfterFunc(c.job.GlobalDeadline, func() {
		c.timeoutFired.Store(true)
		c.stopRequested.Store(true)
		c.gate.Broadcast()
	})
	defer deadlineTimer.Stop()

	pollDone := make(chan struct{})
	go c.pollLoop(cancel, workersDone, pollDone)

	for result := range resultsCh {
		committed := c.agg.Record(result)
		if result.Success && result.Depth < c.job.MaxDepth {
			c.discover(result, committed)
		}
	}

	<-pollDone

	// Workers exit on their own once every page slot is committed, which
	// can happen before pollLoop's first tick ever observes the cap.
	if c.agg.ResultCount() >= c.job.MaxPages {
		c.maxPagesHit.Store(true)
	}

	endTime := time.Now()
	status := c.completionStatus()
	snap := c.agg.Snapshot()
	workerStats := make([]WorkerStats, len(workers))
	for i, w := range workers {
		workerStats[i] = w.Stats()
	}
	return CompileReport(c.job, snap, workerStats, status, c.timeoutFired.Load(), endTime)
}

// pollLoop is the controller's background timer described in the
// scheduling design: every DefaultPollInterval it checks for a terminal
// condition (page cap hit, frontier genuinely drained) and, once any
// stop condition holds, waits up to GracePeriod for workers to exit
// before forcibly cancelling in-flight fetches.
func (c *Controller) pollLoop(cancel context.CancelFunc, workersDone <-chan struct{}, pollDone chan<- struct{}) {
	defer close(pollDone)

	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-workersDone:
			return
		case <-ticker.C:
			if c.agg.ResultCount() >= c.job.MaxPages {
				c.maxPagesHit.Store(true)
				c.stopRequested.Store(true)
				c.gate.Broadcast()
			} else if c.frontier.Idle() {
				c.queueDrained.Store(true)
				c.stopRequested.Store(true)
				c.gate.Broadcast()
			}

			if c.stopRequested.Load() {
				select {
				case <-workersDone:
				case <-time.After(c.job.GracePeriod):
					cancel()
					<-workersDone
				}
				return
			}
		}
	}
}

// discover enqueues every same-host HTML link result cited, up to the
// page cap, skipping anything already visited.
func (c *Controller) discover(result PageResult, committed int) {
	if committed >= c.job.MaxPages {
		return
	}
	for _, link := range result.Links {
		if link.Kind != "internal" || link.ResourceType != "html" {
			continue
		}
		if c.agg.ResultCount() >= c.job.MaxPages {
			return
		}
		c.frontier.TryEnqueue(link.AbsoluteURL, result.Depth+1)
	}
}

// completionStatus evaluates the five terminal states in the precedence
// order the spec fixes: user_cancelled, timeout_exceeded,
// max_pages_reached, queue_empty, completed.
func (c *Controller) completionStatus() CompletionStatus {
	switch {
	case c.userCancelled.Load():
		return StatusUserCancelled
	case c.timeoutFired.Load():
		return StatusTimeoutExceeded
	case c.maxPagesHit.Load():
		return StatusMaxPagesReached
	case c.queueDrained.Load():
		return StatusQueueEmpty
	default:
		return StatusCompleted
	}
}
