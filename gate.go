package gostreams

import "sync"

// gate is a pause/resume valve used by single-subscription sources that are
// driven by a background goroutine (FromSlice, FromChannel,
// FromChannelsConcurrent). Pause/resume on a broadcast source is a
// no-op on the source, so only single-subscription producers need
// one.
type gate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newGate() *gate {
	g := &gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *gate) pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

func (g *gate) resume() {
	g.mu.Lock()
	g.paused = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// wait blocks while the gate is paused. It returns immediately if unpaused.
func (g *gate) wait() {
	g.mu.Lock()
	for g.paused {
		g.cond.Wait()
	}
	g.mu.Unlock()
}
