package gpu

import (
	"context"
	"sync"
)

// mapState tracks the last map of a staging buffer. A Read whose context is
// cancelled leaves its map running; until that map has finished and the
// buffer is unmapped, the buffer cannot be copied into or mapped again.
type mapState struct {
	mu      sync.Mutex
	pending chan struct{}
}

// begin records a new map and returns the function that marks it finished.
func (m *mapState) begin() (done func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.pending = ch
	m.mu.Unlock()
	return func() { close(ch) }
}

// settle waits for the last map to finish.
func (m *mapState) settle(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()
	if pending == nil {
		return nil
	}
	select {
	case <-pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
