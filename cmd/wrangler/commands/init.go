package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruslano69/listing-wrangler/pkg/wrangler"
)

func newInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := wrangler.WriteTemplate(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created config: %s\n", output)
			fmt.Fprintf(cmd.OutOrStdout(), "Edit input.glob and output.path and run:\n  wrangler run --config %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "main.yaml", "path of the configuration file to create")
	return cmd
}
