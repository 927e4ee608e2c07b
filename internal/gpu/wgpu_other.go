//go:build !windows

package gpu

import (
	"fmt"
	"log/slog"
	"runtime"
)

// Open reports ErrUnavailable: the go-webgpu bindings are only built on
// windows.
func Open(_ *slog.Logger) (Device, error) {
	return nil, fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)
}
