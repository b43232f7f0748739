package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripworks/costing-gpt/internal/model"
)

func TestCollectorTallies(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	c.RecordAttempt(model.MethodStructured)
	c.RecordAttempt(model.MethodRegex)
	c.RecordOutcome(model.MethodRegex)

	c.RecordAttempt(model.MethodStructured)
	c.RecordOutcome(model.MethodStructured)

	c.RecordAttempt(model.MethodStructured)
	c.RecordAttempt(model.MethodRegex)
	c.RecordAttempt(model.MethodLLM)
	c.RecordOutcome(model.MethodNone)

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.Attempts[model.MethodStructured])
	assert.Equal(t, 2, snap.Attempts[model.MethodRegex])
	assert.Equal(t, 1, snap.Attempts[model.MethodLLM])
	assert.Equal(t, 1, snap.Successes[model.MethodStructured])
	assert.Equal(t, 1, snap.Successes[model.MethodRegex])
	assert.Equal(t, 3, snap.Documents)
	assert.Equal(t, 1, snap.Failed)
	assert.False(t, snap.StartedAt.IsZero())
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.RecordAttempt(model.MethodRegex)

	snap := c.Snapshot()
	snap.Attempts[model.MethodRegex] = 99

	assert.Equal(t, 1, c.Snapshot().Attempts[model.MethodRegex])
}

func TestCollectorConcurrentUse(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordAttempt(model.MethodLLM)
			c.RecordOutcome(model.MethodLLM)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, 50, snap.Attempts[model.MethodLLM])
	assert.Equal(t, 50, snap.Successes[model.MethodLLM])
	assert.Equal(t, 50, snap.Documents)
}
