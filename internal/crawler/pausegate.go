package crawler

import "sync"

// PauseGate is the reusable pause/resume primitive described in the
// spec's design notes: set = running, clear = paused. Built on a
// sync.Cond rather than a channel because resume must wake every
// waiting worker at once (broadcast), not hand a single token to
// whichever worker happens to receive first.
type PauseGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

// NewPauseGate returns a gate in the running (not paused) state.
func NewPauseGate() *PauseGate {
	g := &PauseGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Pause clears the gate; subsequent Wait calls block until Resume or Stop.
func (g *PauseGate) Pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

// Resume sets the gate and wakes every waiter.
func (g *PauseGate) Resume() {
	g.mu.Lock()
	g.paused = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// IsPaused reports the current state.
func (g *PauseGate) IsPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Broadcast wakes every waiter without changing the paused flag. The
// controller calls this when Stop is requested, so parked workers can
// re-check the stop flag and exit instead of blocking forever on a gate
// nobody will ever Resume.
func (g *PauseGate) Broadcast() {
	g.cond.Broadcast()
}

// WaitUnlessStopped blocks while the gate is paused, unless stopped
// reports true, in which case it returns immediately regardless of the
// paused flag.
func (g *PauseGate) WaitUnlessStopped(stopped func() bool) {
	g.mu.Lock()
	for g.paused && !stopped() {
		g.cond.Wait()
	}
	g.mu.Unlock()
}
