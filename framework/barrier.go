package framework

import (
	"fmt"
	"sync"
)

// Barrier blocks a fixed number of participants until all of them reached it.
// Each participant reports whether its own phase succeeded; Wait returns true
// only if every participant of the same round did.
type Barrier struct {
	mu   sync.Mutex
	cond *sync.Cond

	threshold  int
	count      int
	generation uint

	success     bool
	lastSuccess bool
}

func NewBarrier(count int) *Barrier {
	if count <= 0 {
		panic(fmt.Sprintf("framework: barrier needs at least one participant, got %d", count))
	}
	b := &Barrier{threshold: count, count: count, success: true}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until every participant called Wait for the current round.
func (b *Barrier) Wait(success bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	generation := b.generation
	b.success = b.success && success
	b.count--
	if b.count == 0 {
		b.generation++
		b.count = b.threshold
		b.lastSuccess = b.success
		b.success = true
		b.cond.Broadcast()
		return b.lastSuccess
	}

	for generation == b.generation {
		b.cond.Wait()
	}
	return b.lastSuccess
}
