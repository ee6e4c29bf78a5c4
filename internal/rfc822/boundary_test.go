package rfc822

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryGeneratorUnique(t *testing.T) {
	g := NewBoundaryGenerator()

	const workers = 4
	const perWorker = 25

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				b := g.Next()
				mu.Lock()
				seen[b] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The digit counter cycles 0-9 under the lock, so even generators
	// hammered faster than the clock ticks never repeat.
	assert.Len(t, seen, workers*perWorker)
}

func TestBoundaryFormat(t *testing.T) {
	g := NewBoundaryGenerator()
	b := g.Next()

	require.True(t, strings.HasPrefix(b, "_mailwire_"))
	assert.NotContains(t, b, " ")
	assert.NotContains(t, b, `"`)
}

func TestBoundaryDigitCycles(t *testing.T) {
	g := NewBoundaryGenerator()
	boundaries := make([]string, 11)
	for i := range boundaries {
		boundaries[i] = g.Next()
	}
	for i, a := range boundaries {
		for _, b := range boundaries[i+1:] {
			assert.NotEqual(t, a, b)
		}
	}
}
