package proctor

import (
	"sync"

	"github.com/google/uuid"
)

// Aggregator accumulates the cheating log of one attempt in memory.
type Aggregator struct {
	mu     sync.RWMutex
	log    Log
	closed bool
}

// NewAggregator creates an open aggregator with zeroed counts.
func NewAggregator(examID uuid.UUID, subject Subject) *Aggregator {
	a := &Aggregator{}
	a.Reset(examID, subject)
	return a
}

// Apply increments the count for kind and appends ev when non-nil.
// It returns false, changing nothing, once the aggregator is closed.
func (a *Aggregator) Apply(kind Kind, ev *Evidence) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}

	a.log.Counts[kind]++
	if ev != nil {
		a.log.Evidence = append(a.log.Evidence, *ev)
	}
	return true
}

// Snapshot returns a deep copy of the current log.
func (a *Aggregator) Snapshot() Log {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.log.clone()
}

// Reset discards all accumulated state and restamps the exam and subject.
// A closed aggregator is reopened.
func (a *Aggregator) Reset(examID uuid.UUID, subject Subject) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log = Log{
		ExamID:   examID,
		Subject:  subject,
		Counts:   NewCounts(),
		Evidence: []Evidence{},
	}
	a.closed = false
}

// Close tears the aggregator down; later Apply calls are discarded.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Closed reports whether Close has been called since the last Reset.
func (a *Aggregator) Closed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}
