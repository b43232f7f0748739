// Package metrics tallies extraction outcomes for observability. The
// collector is injected into the orchestrator rather than living as
// process-wide state so tests and concurrent pipelines stay isolated.
package metrics

import (
	"sync"
	"time"

	"github.com/tripworks/costing-gpt/internal/model"
)

// Snapshot is a point-in-time view of extraction tallies.
type Snapshot struct {
	Attempts  map[model.Method]int `json:"attempts"`
	Successes map[model.Method]int `json:"successes"`
	Documents int                  `json:"documents"`
	Failed    int                  `json:"failed"`
	StartedAt time.Time            `json:"started_at"`
}

// Collector counts extraction attempts and successes per method.
type Collector struct {
	mu        sync.Mutex
	attempts  map[model.Method]int
	successes map[model.Method]int
	documents int
	failed    int
	startedAt time.Time
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		attempts:  make(map[model.Method]int),
		successes: make(map[model.Method]int),
		startedAt: time.Now().UTC(),
	}
}

// RecordAttempt notes that a method was tried for a document.
func (c *Collector) RecordAttempt(m model.Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[m]++
}

// RecordOutcome notes the terminal method for a document. MethodNone counts
// as a failed document, not a success.
func (c *Collector) RecordOutcome(m model.Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents++
	if m == model.MethodNone {
		c.failed++
		return
	}
	c.successes[m]++
}

// Snapshot returns a copy of the current tallies.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Attempts:  make(map[model.Method]int, len(c.attempts)),
		Successes: make(map[model.Method]int, len(c.successes)),
		Documents: c.documents,
		Failed:    c.failed,
		StartedAt: c.startedAt,
	}
	for m, n := range c.attempts {
		snap.Attempts[m] = n
	}
	for m, n := range c.successes {
		snap.Successes[m] = n
	}
	return snap
}
