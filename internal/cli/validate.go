package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/relq/dialect/sql/schema"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate",
		Short:         "Check the manifest for problems",
		Long:          "Checks field names, primary keys and relation targets of every manifest table.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd.OutOrStdout())
		},
	}
}

func runValidate(rootOpts *RootOptions, out io.Writer) error {
	file, err := schema.LoadFile(rootOpts.Config)
	if err != nil {
		return err
	}
	result := schema.ValidateSchema(file.Sorted())
	fmt.Fprintln(out, result.String())
	if result.HasErrors() {
		return fmt.Errorf("manifest %s has %d error(s)", rootOpts.Config, len(result.Errors))
	}
	return nil
}
