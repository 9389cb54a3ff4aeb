package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out a predetermined sequence of ids.
//
// This enables deterministic replay logs and golden snapshot comparison.
// It panics when the sequence is exhausted, so a test that records more
// replays than it planned for fails loudly.
//
// Thread-safety: Generate is safe for concurrent use.
type FixedIDGenerator struct {
	mu   sync.Mutex
	ids  []string
	next int
}

// NewFixedIDGenerator creates a generator returning ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewCountingIDGenerator creates a generator returning prefix-1 ... prefix-n.
func NewCountingIDGenerator(prefix string, n int) *FixedIDGenerator {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return NewFixedIDGenerator(ids...)
}

// Generate returns the next id.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next >= len(g.ids) {
		panic(fmt.Sprintf("testutil: FixedIDGenerator exhausted after %d ids", len(g.ids)))
	}
	id := g.ids[g.next]
	g.next++
	return id
}

// Remaining returns how many ids are left.
func (g *FixedIDGenerator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ids) - g.next
}
