package proctor

import (
	"sync"
	"time"
)

// Cooldown is the minimum spacing between two accepted events of one kind.
const Cooldown = 3000 * time.Millisecond

// Gate debounces events per kind. Kinds that have never been accepted
// always pass.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[Kind]time.Time
}

// NewGate creates a Gate with the given window. A non-positive window
// falls back to Cooldown.
func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = Cooldown
	}
	return &Gate{
		window: window,
		last:   make(map[Kind]time.Time),
	}
}

// Accept reports whether an event of kind at now passes the gate, and
// records now as the kind's last acceptance when it does. Rejections
// leave the gate unchanged.
func (g *Gate) Accept(kind Kind, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, seen := g.last[kind]; seen && now.Sub(last) < g.window {
		return false
	}
	g.last[kind] = now
	return true
}

// Last returns the last accepted time for kind.
func (g *Gate) Last(kind Kind) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.last[kind]
	return t, ok
}

// Reset forgets every kind.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.last)
}
