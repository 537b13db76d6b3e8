package workout

import (
	"sync"

	"velocity/internal/location"
	"velocity/internal/timer"
)

// Guard owns the live resources of one session: the tick timer and the
// location subscription. Release frees both exactly once, whichever exit
// path gets there first; resources attached after that are freed on arrival.
type Guard struct {
	mu          sync.Mutex
	released    bool
	cancelTimer timer.Cancel
	sub         location.Subscription
}

func NewGuard() *Guard {
	return &Guard{}
}

func (g *Guard) SetTimer(cancel timer.Cancel) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		cancel()
		return
	}
	g.cancelTimer = cancel
	g.mu.Unlock()
}

func (g *Guard) SetSubscription(sub location.Subscription) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		sub.Remove()
		return
	}
	g.sub = sub
	g.mu.Unlock()
}

// Release is safe on a nil guard and on repeated calls.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	cancel, sub := g.cancelTimer, g.sub
	g.cancelTimer, g.sub = nil, nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		sub.Remove()
	}
}

func (g *Guard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}
