// Command tengu runs a small demonstration graph and prints the WGSL that
// the wgpu backend generates for it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewCLI(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
