package generator

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedGenerator replays a fixed sequence of replies. It exists for
// deterministic runs: paired with a single worker it consumes replies in
// the exact order targets are processed.
type ScriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	next    int
}

// NewScriptedGenerator returns a generator that yields the given replies
// in order.
func NewScriptedGenerator(replies ...string) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

// Complete returns the next scripted reply. Running past the script or
// hitting an empty reply is a hard failure, mirroring the live client.
func (g *ScriptedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next >= len(g.replies) {
		return "", fmt.Errorf("scripted generator exhausted after %d replies", len(g.replies))
	}
	reply := g.replies[g.next]
	g.next++
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}

// Consumed reports how many replies have been handed out.
func (g *ScriptedGenerator) Consumed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next
}
