// Package ids hands out time-ordered snowflake identifiers for events and
// suggestions.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

// Generator produces unique int64 ids. It is safe for concurrent use.
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given node number (0-1023).
func New(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// MustNew is New for callers with a constant node number.
func MustNew(node int64) *Generator {
	g, err := New(node)
	if err != nil {
		panic(err)
	}
	return g
}

// Next returns a new id.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// Sequence is a deterministic id source for tests.
type Sequence struct {
	n atomic.Int64
}

// Next returns 1, 2, 3, ...
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Format renders an id in the compact base58 form used in API payloads.
func Format(id int64) string {
	return snowflake.ParseInt64(id).Base58()
}
