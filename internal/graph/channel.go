package graph

import (
	"context"
	"sync"
)

// channel is a single-slot handoff of host bytes from a tensor to its probe.
// The slot holds the latest unconsumed payload; the producer checks full
// before reading the device and skips the read when the consumer is behind.
type channel struct {
	mu     sync.Mutex
	c      chan []byte
	closed bool
}

func newChannel() *channel {
	return &channel{c: make(chan []byte, 1)}
}

// full reports whether the previous payload has not been consumed yet.
// A closed channel reports full so the producer stops reading for it.
func (ch *channel) full() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closed || len(ch.c) == cap(ch.c)
}

// send offers data without blocking and reports whether it was accepted.
func (ch *channel) send(data []byte) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return false
	}
	select {
	case ch.c <- data:
		return true
	default:
		return false
	}
}

// close marks the producer gone. A pending payload can still be received.
func (ch *channel) close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.closed {
		ch.closed = true
		close(ch.c)
	}
}

// recv waits for the next payload.
func (ch *channel) recv(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-ch.c:
		if !ok {
			return nil, ErrChannelClosed
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// tryRecv returns the pending payload, if any.
func (ch *channel) tryRecv() ([]byte, bool) {
	select {
	case data, ok := <-ch.c:
		return data, ok
	default:
		return nil, false
	}
}
