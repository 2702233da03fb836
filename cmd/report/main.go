// Command report prints the access period report for a telemetry store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	repository "github.com/okian/doorlog/internal/adapters/repository"
	"github.com/okian/doorlog/internal/config"
	"github.com/okian/doorlog/internal/report"
	"github.com/okian/doorlog/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print per-occupant access periods from the telemetry store",
		Long: `report reads every persisted telemetry record, rebuilds the access
periods of each occupant and prints them with totals.

Defaults come from the monitor configuration (DOORLOG_CONFIG and DOORLOG_*).

Examples:
  report                                   # text report of the configured store
  report --format json                     # machine readable
  report --backend sqlite --path rig.db    # a specific database`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			backend, _ := cmd.Flags().GetString("backend")
			path, _ := cmd.Flags().GetString("path")
			formatName, _ := cmd.Flags().GetString("format")

			if backend == "" {
				backend = cfg.StoreBackend
			}
			if path == "" {
				path = cfg.TelemetryPath
				if backend == repository.BackendSQLite {
					path = cfg.SQLitePath
				}
			}

			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			records, err := repository.ReadAll(ctx, backend, path)
			if err != nil {
				return fmt.Errorf("failed to read telemetry: %w", err)
			}

			logger.Get().Debug(ctx, "building report",
				logger.String("backend", backend),
				logger.String("path", path),
				logger.Int("records", len(records)))

			return report.Render(cmd.OutOrStdout(), report.Build(records), format)
		},
	}

	cmd.Flags().String("backend", "", "Telemetry store backend: csv or sqlite (default from config)")
	cmd.Flags().String("path", "", "Telemetry file or database (default from config)")
	cmd.Flags().String("format", string(report.FormatText), "Output format: text, json or yaml")
	return cmd
}
