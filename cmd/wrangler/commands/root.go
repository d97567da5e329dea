// Package commands реализует команды CLI wrangler.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version - версия CLI
const version = "1.0.0"

// NewRootCmd создает корневую команду со всеми подкомандами
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wrangler",
		Short: "Batch cleaner for real-estate listing exports",
		Long: `Wrangler reads zipped CSV listing exports, removes duplicates and
unwanted rows, converts prices to USD, trims price outliers and writes
one cleaned CSV file.

Examples:
  # Create a commented configuration
  wrangler init --output main.yaml

  # Check configuration without running
  wrangler validate --config main.yaml

  # Run the pipeline
  wrangler run --config main.yaml

  # Return the existing output if it was already produced
  wrangler run --config main.yaml --reuse`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "main.yaml", "pipeline configuration file")

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute запускает CLI; SIGINT/SIGTERM отменяют контекст запуска
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
