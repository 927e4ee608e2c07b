package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestChunks_Cover(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 10}
	n := 95

	var mu sync.Mutex
	seen := make([]int, n)
	calls := 0

	Chunks(n, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		for i := start; i < end; i++ {
			seen[i]++
		}
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times", i, c)
		}
	}
	if calls < 2 {
		t.Errorf("Expected work to be split, got %d chunk(s)", calls)
	}
}

func TestChunks_Sequential(t *testing.T) {
	calls := 0
	Chunks(100, func(start, end int) {
		calls++
		if start != 0 || end != 100 {
			t.Errorf("Expected [0, 100), got [%d, %d)", start, end)
		}
	}, Sequential())

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestChunks_SmallInput(t *testing.T) {
	// Inputs below two chunks run inline.
	cfg := DefaultConfig()
	calls := 0
	Chunks(cfg.MinChunkSize, func(_, _ int) { calls++ }, cfg)

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestChunks_Empty(t *testing.T) {
	Chunks(0, func(_, _ int) {
		t.Error("f should not be called for n == 0")
	}, DefaultConfig())
}

func BenchmarkFor(b *testing.B) {
	n := 1 << 16
	out := make([]float32, n)

	b.Run("parallel", func(b *testing.B) {
		cfg := DefaultConfig()
		for i := 0; i < b.N; i++ {
			For(n, func(j int) { out[j] = float32(j) * 0.5 }, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfg := Sequential()
		for i := 0; i < b.N; i++ {
			For(n, func(j int) { out[j] = float32(j) * 0.5 }, cfg)
		}
	})
}
