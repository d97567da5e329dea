package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruslano69/listing-wrangler/pkg/wrangler"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the pipeline configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := wrangler.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Сборка цепочки проверяет параметры процессоров
			chain, err := wrangler.NewProcessor(cfg).Chain()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			lower, upper := cfg.Outliers.Bounds()
			fmt.Fprintf(out, "✓ %s is valid\n", configPath)
			fmt.Fprintf(out, "  pipeline:   %s\n", cfg.Name)
			fmt.Fprintf(out, "  input:      %s\n", cfg.Input.Glob)
			fmt.Fprintf(out, "  processors: %d\n", chain.Len())
			fmt.Fprintf(out, "  outliers:   %v-%v\n", lower, upper)
			fmt.Fprintf(out, "  output:     %s\n", cfg.Output.Path)
			return nil
		},
	}
}
