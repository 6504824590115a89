package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out sequential identifiers so tests can predict them.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator builds a generator producing "<prefix>-1", "<prefix>-2" and
// so on. An empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}

// NextFunc adapts the generator for injection as an id function.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
