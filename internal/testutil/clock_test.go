package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latchlist/internal/engine"
)

var (
	_ engine.Sequencer   = (*DeterministicClock)(nil)
	_ engine.IDGenerator = (*SequenceIDs)(nil)
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_At(t *testing.T) {
	clock := NewDeterministicClockAt(100)
	assert.Equal(t, int64(101), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(100), clock.Current())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const goroutines, calls = 50, 100

	var wg sync.WaitGroup
	results := make([][]int64, goroutines)
	for i := range results {
		results[i] = make([]int64, calls)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				results[idx][j] = clock.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, row := range results {
		for _, v := range row {
			require.False(t, seen[v], "duplicate value %d", v)
			seen[v] = true
		}
	}
	for i := int64(1); i <= goroutines*calls; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}
