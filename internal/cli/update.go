package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
	"github.com/syssam/relq/dialect/sql/schema"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	Backend string
	DSN     string
	Schemas []string
	DryRun  bool
	Force   bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the manifest from a live database",
		Long: `Inspects the database and merges every table into the manifest.

Tables flagged manual_update are left alone. Columns keep their field name
overrides; columns gone from the database are dropped. Tables missing from the
database are reported but kept. Changes that break code generated from the
current manifest are refused unless --force is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "", "database backend (mysql|postgres|sqlite)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name of the database")
	cmd.Flags().StringSliceVar(&opts.Schemas, "schema", nil, "schemas to inspect (default: all visible)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report changes without writing the manifest")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "write breaking changes")
	_ = cmd.MarkFlagRequired("backend")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runUpdate(ctx context.Context, rootOpts *RootOptions, opts *UpdateOptions, out io.Writer) error {
	log := rootOpts.Logger()
	backend, ok := dialect.ParseBackend(opts.Backend)
	if !ok {
		return relq.UnsupportedDialectError(opts.Backend)
	}

	file, err := schema.LoadFile(rootOpts.Config)
	if err != nil {
		return err
	}

	drv, err := sql.Open(backend, opts.DSN)
	if err != nil {
		return err
	}
	defer drv.Close()

	log.Debug("inspecting database", "backend", backend, "schemas", opts.Schemas)
	defs, err := schema.Inspect(ctx, backend, drv.DB(), opts.Schemas...)
	if err != nil {
		return err
	}

	// MergeAll replaces map entries instead of mutating tables, so the
	// previous snapshot stays intact.
	before := file.Sorted()
	report, err := file.MergeAll(ctx, defs, backend)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.String())

	diff := schema.ValidateDiff(before, file.Sorted())
	for _, w := range diff.Warnings {
		log.Warn(w.Message, "table", w.Table, "column", w.Column)
	}
	if diff.HasErrors() {
		if !opts.Force {
			return fmt.Errorf("update would break generated code, rerun with --force to write it:\n%s", diff)
		}
		for _, e := range diff.Errors {
			log.Warn(e.Message, "table", e.Table, "column", e.Column, "forced", true)
		}
	}

	if !report.Changed() {
		fmt.Fprintln(out, "manifest is up to date")
		return nil
	}
	if opts.DryRun {
		fmt.Fprintln(out, "dry run, manifest not written")
		return nil
	}
	if err := file.Save(rootOpts.Config); err != nil {
		return err
	}
	log.Info("manifest updated", "path", rootOpts.Config, "added", len(report.Added), "updated", len(report.Updated))
	return nil
}
