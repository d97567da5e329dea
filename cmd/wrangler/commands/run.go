package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruslano69/listing-wrangler/pkg/logging"
	"github.com/ruslano69/listing-wrangler/pkg/wrangler"
)

func newRunCmd() *cobra.Command {
	var (
		reuse     bool
		logLevel  string
		logFormat string
		runID     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cleaning pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := wrangler.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Флаги имеют приоритет над файлом и окружением
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}

			logger, closer, err := logging.New(cfg.Logging, cmd.ErrOrStderr(), time.Now())
			if err != nil {
				return err
			}
			defer closer.Close()
			slog.SetDefault(logger)

			p := wrangler.NewProcessor(cfg).WithLogger(logger).WithRunID(runID)
			ds, err := p.Load(cmd.Context(), reuse || cfg.Output.Reuse)
			if err != nil {
				return err
			}

			stats := p.Stats()
			mode := "written"
			if stats.Reused {
				mode = "reused"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d rows %s to %s (%s)\n",
				cfg.Name, ds.Len(), mode, cfg.Output.Path, stats.Duration.Round(time.Millisecond))
			for _, w := range stats.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "  warning: %v\n", w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reuse, "reuse", false, "return the existing output instead of recomputing it")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier for the audit journal and result log (default: new UUID)")
	return cmd
}
