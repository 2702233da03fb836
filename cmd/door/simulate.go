package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/doorlog/internal/doorsim"
)

// Simulation defaults.
const (
	defaultVisits  = 5
	defaultMinStay = 2 * time.Second
	defaultMaxStay = 5 * time.Second
	defaultGap     = 3 * time.Second
	defaultSettle  = 2 * time.Second
	defaultTimeout = 10 * time.Second
	defaultRunTime = 30 * time.Minute
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Walk scripted visits through the door",
		Long: `simulate plans random visits by the configured users, plays them
through the door and, with --verify, checks the monitor's report.

Examples:
  door simulate --visits 10
  door simulate --verify --url http://localhost:9080 --seed 42`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			done, err := setupLogging(cmd)
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			flags := cmd.Flags()
			simCfg := &doorsim.Config{Users: s.cfg.ValidUsers}
			simCfg.BaseURL, _ = flags.GetString("url")
			simCfg.Visits, _ = flags.GetInt("visits")
			simCfg.MinStay, _ = flags.GetDuration("min-stay")
			simCfg.MaxStay, _ = flags.GetDuration("max-stay")
			simCfg.Gap, _ = flags.GetDuration("gap")
			simCfg.Settle, _ = flags.GetDuration("settle")
			simCfg.Timeout, _ = flags.GetDuration("timeout")
			simCfg.Seed, _ = flags.GetInt64("seed")
			simCfg.Verify, _ = flags.GetBool("verify")
			simCfg.Verbose, _ = flags.GetBool("verbose")
			runTime, _ := flags.GetDuration("max-run")

			runCtx, cancel := context.WithTimeout(ctx, runTime)
			defer cancel()

			_, err = doorsim.Run(runCtx, simCfg, s.door)
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("url", "http://localhost:9080", "Monitor HTTP base URL")
	flags.Int("visits", defaultVisits, "Number of visits")
	flags.Duration("min-stay", defaultMinStay, "Shortest stay inside")
	flags.Duration("max-stay", defaultMaxStay, "Longest stay inside")
	flags.Duration("gap", defaultGap, "Wait between visits")
	flags.Duration("settle", defaultSettle, "Wait after the last exit before checking the report")
	flags.Duration("timeout", defaultTimeout, "HTTP request timeout")
	flags.Duration("max-run", defaultRunTime, "Abort the simulation after this long")
	flags.Int64("seed", 0, "Plan seed (0 picks one from the clock)")
	flags.Bool("verify", false, "Check the monitor report against the plan")
	flags.Bool("verbose", false, "Log every door decision")
	return cmd
}
