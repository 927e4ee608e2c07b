package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/tengu"
	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/backend/webgpu"
	"github.com/born-ml/tengu/internal/envconfig"
	"github.com/born-ml/tengu/internal/gpu/gputest"
)

// NewCLI returns the root command writing its output to w.
func NewCLI(w io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tengu",
		Short:         "Tensor graph engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envconfig.LogLevel()})
			slog.SetDefault(slog.New(handler))
		},
	}
	rootCmd.SetOut(w)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tengu %s\n", version)
		},
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		Run:   EnvHandler,
	}

	shaderCmd := &cobra.Command{
		Use:   "shader",
		Short: "Print the WGSL generated for the demo graph",
		Args:  cobra.NoArgs,
		RunE:  ShaderHandler,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo graph and print probe values",
		Args:  cobra.NoArgs,
		RunE:  RunHandler,
	}
	runCmd.Flags().Int("steps", 4, "Number of steps to run")
	runCmd.Flags().String("backend", "", "Backend to run on (cpu or wgpu, default $TENGU_BACKEND or cpu)")

	rootCmd.AddCommand(versionCmd, envCmd, shaderCmd, runCmd)
	return rootCmd
}

// EnvHandler prints every TENGU_* variable.
func EnvHandler(cmd *cobra.Command, _ []string) {
	vals := envconfig.Values()
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, vals[k])
	}
}

// ShaderHandler compiles the demo graph against an in-memory device and
// prints one shader per block.
func ShaderHandler(cmd *cobra.Command, _ []string) error {
	dev := gputest.New(8)
	tg := tengu.FromBackend(webgpu.NewWithDevice(dev, backend.Options{Logger: slog.Default()}))
	defer tg.Close()

	w, err := buildWalk(tg)
	if err != nil {
		return err
	}
	if err := w.graph.Compute(cmd.Context(), 1); err != nil {
		return err
	}
	for _, p := range dev.Pipelines {
		fmt.Fprintf(cmd.OutOrStdout(), "// block %s\n%s\n", p.Label, p.Code)
	}
	return nil
}

// RunHandler runs the demo graph for --steps steps while a second goroutine
// prints probe values as they arrive. Values the printer is too slow for are
// skipped by the graph.
func RunHandler(cmd *cobra.Command, _ []string) error {
	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return err
	}
	if steps < 0 {
		return fmt.Errorf("invalid steps %d", steps)
	}

	kind, _ := cmd.Flags().GetString("backend")
	if kind == "" {
		kind = envconfig.Backend()
	}
	if kind == "" {
		kind = string(tengu.KindCPU)
	}

	tg, err := tengu.New(cmd.Context(),
		tengu.WithBackend(tengu.Kind(kind)),
		tengu.WithLogger(slog.Default()),
		tengu.WithParallel(envconfig.Parallel()),
	)
	if err != nil {
		return err
	}
	defer tg.Close()

	w, err := buildWalk(tg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		defer w.graph.Close()
		return w.graph.Compute(ctx, steps)
	})
	g.Go(func() error {
		out := cmd.OutOrStdout()
		for {
			pos, err := w.pos.Retrieve(ctx)
			if errors.Is(err, tengu.ErrChannelClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "pos %v\n", pos)
			if hit, ok := w.hit.TryRetrieve(); ok {
				fmt.Fprintf(out, "hit %v\n", hit)
			}
		}
	})
	return g.Wait()
}
