package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/relq/compiler/gen"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql/schema"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	Out     string
	Package string
	Backend string
	Workers int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:           "generate",
		Short:         "Generate schema handles from the manifest",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory of the generated package")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "package name (default: base of --out)")
	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "", "only generate tables seen on this backend")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel file writers (default: GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (o *GenerateOptions) options(rootOpts *RootOptions) []gen.Option {
	opts := []gen.Option{gen.WithOutDir(o.Out), gen.WithLogger(rootOpts.Logger())}
	if o.Package != "" {
		opts = append(opts, gen.WithPackage(o.Package))
	}
	if o.Backend != "" {
		b, ok := dialect.ParseBackend(o.Backend)
		if !ok {
			b = dialect.Backend(o.Backend)
		}
		opts = append(opts, gen.WithBackend(b))
	}
	if o.Workers != 0 {
		opts = append(opts, gen.WithWorkers(o.Workers))
	}
	return opts
}

func runGenerate(ctx context.Context, rootOpts *RootOptions, opts *GenerateOptions) error {
	file, err := schema.LoadFile(rootOpts.Config)
	if err != nil {
		return err
	}
	if len(file.Tables) == 0 {
		return fmt.Errorf("manifest %s has no tables, run relq update first", rootOpts.Config)
	}
	return gen.Generate(ctx, file, opts.options(rootOpts)...)
}
