package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined identifiers.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same generator produces byte-identical journals.
//
// With a single ID, every call returns it. With several, they are returned
// in order and the generator panics once exhausted, catching tests that
// create more programs than they expect.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator over ids.
// If ids is empty, Generate returns "test-program-default".
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	if len(ids) == 0 {
		ids = []string{"test-program-default"}
	}
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next identifier.
//
// Implements tea.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.ids) == 1 {
		return g.ids[0]
	}
	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedIDGenerator: all %d ids exhausted", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
