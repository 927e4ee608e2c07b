// Package envconfig reads the TENGU_* environment variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/tengu/internal/parallel"
)

// Var returns the value of key with surrounding spaces and quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// String returns a getter for key.
func String(key string) func() string {
	return func() string {
		return Var(key)
	}
}

// BoolWithDefault returns a getter for key. A set but unparsable value counts
// as true.
func BoolWithDefault(key string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for key that defaults to false.
func Bool(key string) func() bool {
	withDefault := BoolWithDefault(key)
	return func() bool {
		return withDefault(false)
	}
}

// Uint returns a getter for key. Invalid values log a warning and fall back
// to defaultValue.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// Backend selects the backend used by the command line tool.
	Backend = String("TENGU_BACKEND")
	// NumWorkers overrides the number of CPU worker goroutines. Zero keeps
	// the default.
	NumWorkers = Uint("TENGU_NUM_WORKERS", 0)
	// MinChunkSize overrides the smallest tensor split across workers.
	MinChunkSize = Uint("TENGU_MIN_CHUNK_SIZE", 0)
	// NoParallel disables parallel CPU kernels.
	NoParallel = Bool("TENGU_NO_PARALLEL")
)

// LogLevel returns the level set by TENGU_DEBUG: 0 or false is INFO, 1 or
// true is DEBUG, larger integers go further below DEBUG.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("TENGU_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Parallel returns the default CPU parallelism with the environment
// overrides applied.
func Parallel() parallel.Config {
	cfg := parallel.DefaultConfig()
	if n := NumWorkers(); n > 0 {
		cfg.NumWorkers = int(n)
		cfg.Enabled = n > 1
	}
	if n := MinChunkSize(); n > 0 {
		cfg.MinChunkSize = int(n)
	}
	if NoParallel() {
		cfg.Enabled = false
	}
	return cfg
}

// EnvVar describes one variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"TENGU_BACKEND":        {"TENGU_BACKEND", Backend(), "Backend used by the tengu command (cpu or wgpu, default cpu)"},
		"TENGU_DEBUG":          {"TENGU_DEBUG", LogLevel(), "Show additional debug information (e.g. TENGU_DEBUG=1)"},
		"TENGU_NUM_WORKERS":    {"TENGU_NUM_WORKERS", NumWorkers(), "Number of CPU worker goroutines (default: number of CPUs)"},
		"TENGU_MIN_CHUNK_SIZE": {"TENGU_MIN_CHUNK_SIZE", MinChunkSize(), "Smallest tensor split across CPU workers"},
		"TENGU_NO_PARALLEL":    {"TENGU_NO_PARALLEL", NoParallel(), "Run CPU kernels on one goroutine"},
	}
}

// Values returns every variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
