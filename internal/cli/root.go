// Package cli implements the relq command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/relq/dialect/sql/schema"

	// Database/sql drivers for the backends update can inspect.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool

	logger *slog.Logger
}

// Logger returns the logger shared by the subcommands. Logs go to stderr so
// command output stays machine readable.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		o.logger = newLogger(os.Stderr, o.Verbose)
	}
	return o.logger
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand creates the root command for the relq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relq",
		Short: "Typed relational queries from a database manifest",
		Long: `relq introspects a database into a YAML table manifest and generates
typed schema handles from it. Hand edits to the manifest survive updates.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config == "" {
				return fmt.Errorf("--config must not be empty")
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", schema.DefaultFile, "path of the table manifest")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// Execute runs the root command and prints the error, if any.
func Execute() error {
	cmd := NewRootCommand()
	ctx, stop := signalContext(context.Background())
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
