package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock is a manually advanced clock for tests. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock frozen at t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock frozen at 2025-03-10 08:15:00 UTC, an
// arbitrary instant shared by tests that only care about determinism.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2025, 3, 10, 8, 15, 0, 0, time.UTC))
}

// Now returns the current stub time.
func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator hands out sequential IDs ("id-1", "id-2", ...) so tests
// can predict assigned identifiers.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

// New returns the next sequential ID.
func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}
