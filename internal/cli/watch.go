package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/relq/internal/watcher"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	GenerateOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:           "watch",
		Short:         "Regenerate schema handles whenever the manifest changes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory of the generated package")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "package name (default: base of --out)")
	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "", "only generate tables seen on this backend")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel file writers (default: GOMAXPROCS)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before regenerating")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runWatch(ctx context.Context, rootOpts *RootOptions, opts *WatchOptions) error {
	log := rootOpts.Logger()
	regenerate := func(ctx context.Context) error {
		return runGenerate(ctx, rootOpts, &opts.GenerateOptions)
	}
	// Start from a fresh output; a broken manifest is reported but does not
	// stop the watch.
	if err := regenerate(ctx); err != nil {
		log.Error("generate failed", "err", err)
	}

	w, err := watcher.New(watcher.Config{
		Path:          rootOpts.Config,
		DebounceDelay: opts.Debounce,
		Logger:        log,
		OnChange:      regenerate,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
