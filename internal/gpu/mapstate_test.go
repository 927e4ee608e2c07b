package gpu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStateIdle(t *testing.T) {
	var m mapState
	assert.NoError(t, m.settle(context.Background()))
}

func TestMapStateWaitsForPendingMap(t *testing.T) {
	var m mapState
	done := m.begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.settle(ctx), context.Canceled)

	settled := make(chan error, 1)
	go func() { settled <- m.settle(context.Background()) }()

	select {
	case <-settled:
		t.Fatal("settle returned while the map was pending")
	case <-time.After(20 * time.Millisecond):
	}

	done()
	select {
	case err := <-settled:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("settle did not return after the map finished")
	}

	// A finished map does not block the next one.
	next := m.begin()
	next()
	assert.NoError(t, m.settle(context.Background()))
}
