package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteppingClock_StartsAtEpoch(t *testing.T) {
	clock := NewSteppingClock(time.Time{}, 0)
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, int64(2), clock.Calls())
}

func TestSteppingClock_CustomStep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, time.Minute)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Minute), clock.Now())
	assert.Equal(t, start.Add(2*time.Minute), clock.Now())
}

func TestSteppingClock_Reset(t *testing.T) {
	clock := NewSteppingClock(time.Time{}, time.Second)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Calls())
	assert.Equal(t, Epoch, clock.Now())
}

func TestSteppingClock_ThreadSafe(t *testing.T) {
	clock := NewSteppingClock(time.Time{}, time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	seen := make(chan time.Time, numGoroutines*callsPerGoroutine)
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		require.False(t, unique[ts], "duplicate timestamp %v", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, numGoroutines*callsPerGoroutine)
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "run-1", ids.Generate())
	assert.Equal(t, "run-2", ids.Generate())

	push := NewSequentialIDs("push")
	assert.Equal(t, "push-1", push.Generate())
}

func TestSequentialIDs_Dup(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "run-1", ids.Generate())
	assert.Equal(t, "run-2", ids.Generate())

	other := NewSequentialIDs("push")
	assert.Equal(t, "push-1", other.Generate())
}
