package envconfig

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVar(t *testing.T) {
	t.Setenv("TENGU_BACKEND", ` "wgpu" `)
	assert.Equal(t, "wgpu", Backend())

	t.Setenv("TENGU_BACKEND", "'cpu'")
	assert.Equal(t, "cpu", Backend())
}

func TestBool(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"1":     true,
		"false": false,
		"0":     false,
		"yes":   true,
	}
	for v, want := range cases {
		t.Run(v, func(t *testing.T) {
			t.Setenv("TENGU_NO_PARALLEL", v)
			assert.Equal(t, want, NoParallel())
		})
	}
}

func TestUint(t *testing.T) {
	t.Setenv("TENGU_NUM_WORKERS", "")
	assert.Equal(t, uint(0), NumWorkers())

	t.Setenv("TENGU_NUM_WORKERS", "6")
	assert.Equal(t, uint(6), NumWorkers())

	t.Setenv("TENGU_NUM_WORKERS", "-2")
	assert.Equal(t, uint(0), NumWorkers())
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"true":  slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
	}
	for v, want := range cases {
		t.Run(v, func(t *testing.T) {
			t.Setenv("TENGU_DEBUG", v)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestParallel(t *testing.T) {
	t.Setenv("TENGU_NUM_WORKERS", "3")
	t.Setenv("TENGU_MIN_CHUNK_SIZE", "16")
	t.Setenv("TENGU_NO_PARALLEL", "")

	cfg := Parallel()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.NumWorkers)
	assert.Equal(t, 16, cfg.MinChunkSize)

	t.Setenv("TENGU_NO_PARALLEL", "1")
	assert.False(t, Parallel().Enabled)
}

func TestValues(t *testing.T) {
	t.Setenv("TENGU_BACKEND", "wgpu")
	vals := Values()
	assert.Equal(t, "wgpu", vals["TENGU_BACKEND"])
	assert.Len(t, vals, len(AsMap()))
}
